// Package searchsync keeps a search index in step with records held in a
// Redis document store.
//
// Record types are declared in Go. Each type lists the fields it renders,
// the relations it projects and, for embedded types, the parent it lives in.
//
//	client, _ := searchsync.New(ctx, "blog",
//	    searchsync.WithRedis("localhost:6379", ""),
//	    searchsync.WithElasticsearch("http://localhost:9200"),
//	)
//	defer client.Close()
//
//	_ = client.Register(searchsync.Type{
//	    Name:   "Article",
//	    Fields: searchsync.Attrs("title", "body"),
//	    Relations: []searchsync.Relation{
//	        {Name: "author", Kind: searchsync.ToOne, Collection: "user", Fields: searchsync.Attrs("name")},
//	    },
//	})
//
//	res, err := client.ReindexData(ctx)
//	log.Println(res.Message)
package searchsync
