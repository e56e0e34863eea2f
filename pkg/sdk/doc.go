// Package netmatch embeds the netmatch search and match-explanation engine
// in a Go program without running the HTTP server.
//
// The client reads profiles from Postgres, keeps match explanations in Redis
// and calls a caller-supplied text completion provider.
//
//	client, _ := netmatch.New(ctx,
//	    netmatch.WithPostgres("postgres://localhost/netmatch?sslmode=disable"),
//	    netmatch.WithRedis("localhost:6379", ""),
//	    netmatch.WithCompleter(myCompleter),
//	)
//	defer client.Close()
//
//	res := client.Search(ctx, "golang engineers in berlin", "me")
//	for _, p := range res.Results {
//	    fmt.Println(p.Name, p.Role)
//	}
//
//	m, err := client.ExplainMatch(ctx, "me", res.Results[0].ID)
//	if errors.Is(err, netmatch.ErrMatchUnavailable) {
//	    // show nothing
//	}
package netmatch
