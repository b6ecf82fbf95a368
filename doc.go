// Package bigcommerce provides the HTTP connection used to talk to the
// BigCommerce REST API.
//
// A Connection sends GET, POST, PUT, DELETE and HEAD requests with the
// configured headers and credentials, decodes JSON or XML bodies, follows
// 301/302 redirects and replays requests the API rate limited.
//
// Basic usage:
//
//	conn, err := bigcommerce.New(bigcommerce.WithFailOnError(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	conn.AuthenticateOAuth(clientID, token)
//	conn.VerifyPeer(true)
//
//	products, err := conn.Get(ctx, storeURL+"/v3/catalog/products", map[string]string{"limit": "10"})
//	if errors.Is(err, bigcommerce.ErrNotFound) {
//	    // Handle missing resource
//	}
//
// Without fail-on-error, 4xx and 5xx responses return a nil body and a nil
// error; the error is kept on the connection:
//
//	body, err := conn.Get(ctx, url, nil)
//	if err == nil && body == nil {
//	    if lastErr := conn.LastError(); lastErr != nil {
//	        log.Println(lastErr)
//	    }
//	}
//
// A JSON body that cannot be parsed decodes to nil rather than an error.
// Use Body or Decode to inspect it.
package bigcommerce
