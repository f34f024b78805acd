// Package reddit fetches a subreddit's top posts and their top-level
// comments through Reddit's OAuth API and renders them as the plain-text
// context block the radar prompts read.
//
// Authentication uses the client-credentials grant (REDDIT_CLIENT_ID,
// REDDIT_CLIENT_SECRET); tokens are cached and refreshed by
// golang.org/x/oauth2. Requests are paced by a token-bucket limiter so a
// run never exceeds Reddit's per-minute quota.
//
//	client, err := reddit.New()
//	if err != nil {
//	    return err
//	}
//	blob, err := client.Fetch(ctx, "LocalLLaMA", "day", 20, 3)
package reddit
