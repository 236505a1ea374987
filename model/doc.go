// Package model provides chat model constants for all supported AI providers.
//
// Models know their provider, enabling automatic routing in the client
// package, and carry pricing for cost estimation from relay.Usage.
//
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{
//	        Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
//	    },
//	    Default: model.ClaudeSonnet45,
//	})
//
//	resp, err := c.Chat(ctx, messages)
//	fmt.Printf("cost: $%.6f\n", model.ClaudeSonnet45.Cost(resp.Usage))
package model
