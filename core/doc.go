// Package core holds the types shared by the transport and the API packages:
// the error model, the retry policy, the event stream handle and the
// telemetry hook.
//
// # Errors
//
// Every failure surfaced by a call is a [*Error]. Its Err field is one of the
// sentinel kinds, so callers branch with errors.Is:
//
//	resp, err := client.Messages().Create(ctx, req)
//	switch {
//	case errors.Is(err, core.ErrUnauthorized):
//	    // fix the key
//	case errors.Is(err, core.ErrAPI):
//	    // rate limited or overloaded after all retries
//	}
//
// [*Error] also carries the HTTP status, the server's request-id and, when the
// server sent one, its error type and message.
//
// # Retry
//
// [BackoffPolicy] controls how long a call keeps retrying rate-limited (429)
// and overloaded (529) responses. The zero value is invalid; start from
// [DefaultBackoffPolicy]:
//
//	p := core.DefaultBackoffPolicy()
//	p.MaxElapsedTime = 30 * time.Second
//
// # Streams
//
// [EventStream] delivers decoded events in order. Iterate with Next/Event or
// with All, and always Close it or drain it to release the connection:
//
//	for ev, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    handle(ev)
//	}
//
// # Secrets
//
// [Secret] wraps the API key so it never appears in logs, fmt output or JSON.
package core
