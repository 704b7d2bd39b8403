package letterboxd

import (
	"context"
	"errors"
	"net"
	"net/http/cookiejar"
	"time"

	"deathrace-backend/lib/restyutil"
	"deathrace-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	random "github.com/mazen160/go-random"
)

// SessionFactory produces a fresh, independently authenticated http
// session. letterboxd's bot mitigation starts answering 403 once the
// same session pages through the diary, so the scraper calls this
// once per diary page rather than holding one client.
type SessionFactory func() *resty.Client

type SessionOptions struct {
	Timeout time.Duration
	// captures whole HTTP exchanges to disk while debug logging
	// is on, nil disables capture
	Output restyutil.InstrumentOutput
}

// NewSessionFactory returns the production factory: cookie jar per
// session, cloudflare bypass transport and a randomized browser
// user-agent.
func NewSessionFactory(opts SessionOptions) SessionFactory {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	return func() *resty.Client {
		client := resty.New()
		jar, err := cookiejar.New(nil)
		if err == nil {
			client.SetCookieJar(jar)
		}
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
		client.SetHeader("user-agent", browser.Firefox())
		client.SetTimeout(timeout)

		telemetry.InstrumentResty(client, "scrapers/letterboxd/http")
		restyutil.InstrumentClient(client, opts.Output)
		return client
	}
}

// RetryPolicy wraps page fetches. every attempt gets its own session
// from the factory so retrying never reuses a rejected session.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p RetryPolicy) sleep(ctx context.Context, attempt int) error {
	backoff := p.Backoff * time.Duration(attempt)
	jitterMs, err := random.IntRange(0, 250)
	if err == nil {
		backoff += time.Duration(jitterMs) * time.Millisecond
	}

	select {
	case <-time.After(backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func fetchPage(ctx context.Context, client *resty.Client, url string) (string, error) {
	res, err := client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		reason := ReasonConnection
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			reason = ReasonTimeout
		}
		return "", &FetchError{URL: url, Reason: reason, cause: err}
	}
	if !res.IsSuccess() {
		return "", &FetchError{URL: url, Reason: ReasonStatus, Status: res.StatusCode()}
	}
	return res.String(), nil
}
