// client.go contains the http side of talking to the registration portal,
// parsing of the returned pages lives in listing.go and detail.go.

package registrar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"enrollments-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("enrollments.registrar")

const (
	DefaultBaseURL  = "https://eservices.minnstate.edu/registration/search/"
	DefaultCampusID = 72
)

// ErrBadStatus is returned when the portal answers with a non 2xx status.
var ErrBadStatus = errors.New("unexpected response status")

type Options struct {
	BaseURL  string
	CampusID int
	// RequestsPerSecond of 0 defaults to 2.
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
	// Output receives a dump of every http exchange when set.
	Output restyutil.InstrumentOutput
}

// Client fetches pages from the registration portal for a single campus.
type Client struct {
	baseURL  string
	campusID int
	http     *resty.Client
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CampusID == 0 {
		opts.CampusID = DefaultCampusID
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}

	parsedBaseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseURL.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	// burst >= 1 just means that no requests will be dropped
	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	restyutil.InstrumentClient(httpClient, tracer, opts.Output)

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		campusID: opts.CampusID,
		http:     httpClient,
	}, nil
}

// get returns the body along with ErrBadStatus so callers can inspect
// error pages.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	if res.IsError() {
		return res.Body(), fmt.Errorf("get %s: %w: %s", path, ErrBadStatus, res.Status())
	}
	return res.Body(), nil
}

func (c *Client) basicParams() url.Values {
	return url.Values{
		"campusid": {fmt.Sprintf("%03d", c.campusID)},
	}
}

func (c *Client) searchParams(term, subject string) url.Values {
	params := url.Values{
		"campusid":       {fmt.Sprintf("%03d", c.campusID)},
		"searchrcid":     {fmt.Sprintf("%04d", c.campusID)},
		"searchcampusid": {fmt.Sprintf("%03d", c.campusID)},
		"yrtr":           {term},
		"subject":        {subject},
		"openValue":      {"ALL"},
		"delivery":       {"ALL"},
		"credittype":     {"ALL"},
		"resultNumber":   {"250"},
	}
	for _, empty := range []string{
		"courseNumber", "courseId", "showAdvanced", "starttime", "endtime",
		"mntransfer", "gened", "credits", "instructor", "keyword", "begindate", "site",
	} {
		params.Set(empty, "")
	}
	return params
}

func (c *Client) detailParams(courseID, term string) url.Values {
	return url.Values{
		"campusid":  {fmt.Sprintf("%03d", c.campusID)},
		"courseid":  {courseID},
		"yrtr":      {term},
		"rcid":      {fmt.Sprintf("%04d", c.campusID)},
		"localrcid": {fmt.Sprintf("%04d", c.campusID)},
		"partnered": {"false"},
		"parent":    {"search"},
	}
}

// DetailURL is the public link of a course's detail page.
func (c *Client) DetailURL(courseID, term string) string {
	return fmt.Sprintf("%s/detail.html?%s", c.baseURL, c.detailParams(courseID, term).Encode())
}

// Subjects lists the rubrics offered in a term.
func (c *Client) Subjects(ctx context.Context, term string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Subjects")
	defer span.End()

	body, err := c.get(ctx, "basic.html", c.basicParams())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch subjects")
		return nil, err
	}
	subjects, err := ParseSubjects(body, term)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse subjects")
		return nil, err
	}
	span.SetAttributes(attribute.Int("subjects", len(subjects)))
	return subjects, nil
}

// SubjectListing returns the search results of every section of a subject in a term.
func (c *Client) SubjectListing(ctx context.Context, term, subject string) ([]Row, error) {
	ctx, span := tracer.Start(ctx, "SubjectListing")
	defer span.End()
	span.SetAttributes(attribute.String("subject", subject), attribute.String("term", term))

	body, err := c.get(ctx, "advancedSubmit.html", c.searchParams(term, subject))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch listing")
		return nil, err
	}
	rows, err := ParseResultsTable(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse listing")
		return nil, fmt.Errorf("subject %s: %w", subject, err)
	}
	return rows, nil
}

// CourseListing returns the single row summary table of a course's detail page.
func (c *Client) CourseListing(ctx context.Context, courseID, term string) ([]Row, error) {
	ctx, span := tracer.Start(ctx, "CourseListing")
	defer span.End()
	span.SetAttributes(attribute.String("course_id", courseID), attribute.String("term", term))

	body, err := c.get(ctx, "detail.html", c.detailParams(courseID, term))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch course")
		return nil, err
	}
	rows, err := ParseMyPlanTable(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse course")
		return nil, fmt.Errorf("course %s: %w", courseID, err)
	}
	return rows, nil
}

// CourseDetail fetches and parses a course's detail page.
func (c *Client) CourseDetail(ctx context.Context, courseID, term string) (Detail, error) {
	ctx, span := tracer.Start(ctx, "CourseDetail")
	defer span.End()
	span.SetAttributes(attribute.String("course_id", courseID), attribute.String("term", term))

	body, err := c.get(ctx, "detail.html", c.detailParams(courseID, term))
	// the portal's own error page may come with a 5xx status
	if errors.Is(err, ErrBadStatus) && bytes.Contains(body, []byte(SystemErrorMarker)) {
		err = nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch detail")
		return Detail{}, err
	}
	detail, err := ParseDetail(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse detail")
		return Detail{}, fmt.Errorf("course %s (%s): %w", courseID, c.DetailURL(courseID, term), err)
	}
	if detail.SystemError {
		span.AddEvent("system error page")
	}
	return detail, nil
}
