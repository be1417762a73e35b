// Package instagram provides a client for Instagram's private mobile API.
//
// The client covers what a follow audit needs: password login with an
// optional two-factor step, a timeline probe for resumed sessions, username
// lookups and paginated follower/following listings. Session state lives in
// Settings, which can be dumped to disk after a login and loaded on the next
// run.
//
// Example usage:
//
//	client := instagram.NewClient(30*time.Second, log)
//
//	result, err := client.Login(ctx, username, password)
//	if err != nil {
//	    return err
//	}
//	if result.TwoFactorRequired {
//	    result, err = client.TwoFactorLogin(ctx, username, code, result.TwoFactorIdentifier)
//	}
//
//	followers, err := client.UserFollowers(ctx, client.UserID())
//
// Failures are returned as *errors.Error values from followcheck/pkg/errors
// so callers can branch on the error type.
package instagram
