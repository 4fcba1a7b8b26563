package validator

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	playground "github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	// DevDomain is the parent domain of every development deployment
	DevDomain = "rll-dev.byu.edu"
	// ProdDomain is the parent domain of every production deployment
	ProdDomain = "rll.byu.edu"

	originHeader          = "origin"
	canonicalOriginHeader = "Origin"
)

var (
	// ErrInvalidDomain is returned when the origin is missing or its hostname
	// is not under one of the allowed domains
	ErrInvalidDomain = errors.New("request does not come from an allowed domain")
	// ErrInvalidOrigin is returned when the hostname is under an allowed domain
	// but the origin is not exactly https://<subdomain>.<domain>
	ErrInvalidOrigin = errors.New("request does not come from an allowed origin")

	validate = playground.New()
)

// AllowedDomains returns the allowed domains in the order they are checked.
func AllowedDomains() []string {
	return []string{DevDomain, ProdDomain}
}

// Config configures a Validator. Subdomain is the application name in all
// lowercase, e.g. "appname" for https://appname.rll.byu.edu.
type Config struct {
	Subdomain string `validate:"required,lowercase,dns_rfc1035_label"`
}

// Check reports whether cfg can be used to construct a Validator.
func (c Config) Check() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid subdomain %q: must be a lowercase DNS label: %w", c.Subdomain, err)
	}
	return nil
}

// Result is the outcome of a successful validation
type Result struct {
	Origin string `json:"origin"`
	Domain string `json:"domain"`
}

// Option customizes a Validator
type Option func(*Validator)

// WithLogger sets the logger used for request traces
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// Validator checks that requests come from the application's own front end.
// It holds no mutable state and may be shared across invocations.
type Validator struct {
	cfg Config
	log *zap.Logger
}

// New constructs a Validator for the configured subdomain.
func New(cfg Config, opts ...Option) (*Validator, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	v := &Validator{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.Named("validator")

	return v, nil
}

// Subdomain returns the configured application subdomain
func (v *Validator) Subdomain() string {
	return v.cfg.Subdomain
}

// Validate checks a REST API proxy event. Single-value headers are consulted
// first, then the multi-value headers.
func (v *Validator) Validate(req events.APIGatewayProxyRequest) (*Result, error) {
	headers := req.Headers
	if _, ok := Origin(headers); !ok {
		headers = firstValues(req.MultiValueHeaders)
	}
	return v.ValidateHeaders(headers)
}

// ValidateHTTP checks an HTTP API (payload format 2.0) event.
func (v *Validator) ValidateHTTP(req events.APIGatewayV2HTTPRequest) (*Result, error) {
	return v.ValidateHeaders(req.Headers)
}

// ValidateHeaders checks that the Origin header is exactly
// https://<subdomain>.<domain> for one of the allowed domains.
func (v *Validator) ValidateHeaders(headers map[string]string) (*Result, error) {
	v.log.Debug("validating request", zap.Any("headers", headers))

	origin, ok := Origin(headers)
	if !ok {
		v.log.Warn("no origin provided in request")
		return nil, fmt.Errorf("%w: origin is missing", ErrInvalidDomain)
	}

	domain, ok := Domain(origin)
	if !ok {
		v.log.Warn("origin is not under an allowed domain", zap.String("origin", origin))
		return nil, fmt.Errorf("%w: %s", ErrInvalidDomain, origin)
	}

	// The suffix match above accepts any hostname ending in the domain, so the
	// full origin has to be compared as well.
	if origin != v.expected(domain) {
		v.log.Warn("origin does not match subdomain",
			zap.String("origin", origin),
			zap.String("domain", domain),
		)
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrigin, origin)
	}

	v.log.Info("request validated", zap.String("origin", origin), zap.String("domain", domain))
	return &Result{Origin: origin, Domain: domain}, nil
}

func (v *Validator) expected(domain string) string {
	return "https://" + v.cfg.Subdomain + "." + domain
}

// Origin looks up the origin header ignoring the case of the header names.
// A nil map and a missing key both report false. When several casings are
// present, "origin" wins over "Origin", which wins over the remaining keys in
// sorted order.
func Origin(headers map[string]string) (string, bool) {
	if val, ok := headers[originHeader]; ok {
		return val, true
	}
	if val, ok := headers[canonicalOriginHeader]; ok {
		return val, true
	}

	var keys []string
	for k := range headers {
		if strings.ToLower(k) == originHeader {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}

	sort.Strings(keys)
	return headers[keys[0]], true
}

// Domain reports which allowed domain the origin's hostname ends with. The
// development domain is checked first.
func Domain(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname == "" {
		return "", false
	}

	for _, d := range AllowedDomains() {
		if strings.HasSuffix(hostname, d) {
			return d, true
		}
	}
	return "", false
}

func firstValues(multi map[string][]string) map[string]string {
	if multi == nil {
		return nil
	}

	headers := make(map[string]string, len(multi))
	for k, vals := range multi {
		if len(vals) > 0 {
			headers[k] = vals[0]
		}
	}
	return headers
}
