/*
Package accountsdk is a typed client for the account directory HTTP API.

	client := accountsdk.NewSDKClient("http://localhost:8080")

	created, err := client.CreateAccount(ctx, accountsdk.CreateAccountRequest{
		Name:     "Alice",
		Username: "alice",
		Password: "secret1",
	})

	res, err := client.Authenticate(ctx, "alice", "secret1")
	fmt.Println(res.Authorised)

Failed requests return an *APIError. Compare it against the package
sentinels with errors.Is:

	_, err := client.GetAccount(ctx, 9999)
	if errors.Is(err, accountsdk.ErrNotFound) {
		// no such account
	}

Wrong credentials are not an error: Authenticate returns Authorised=false.
*/
package accountsdk
