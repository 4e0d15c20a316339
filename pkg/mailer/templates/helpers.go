package templates

import (
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithBranding(appName, companyName, supportURL string) Option {
	return func(d *EmailData) {
		d.AppName = appName
		d.CompanyName = companyName
		d.SupportURL = supportURL
	}
}

// Apply fills the job data map with the given options. Keys already present are kept.
func Apply(data map[string]any, opts ...Option) map[string]any {
	var d EmailData
	for _, opt := range opts {
		opt(&d)
	}
	if data == nil {
		data = map[string]any{}
	}
	for k, v := range ToMap(d) {
		if cur, ok := data[k]; ok && defaultFn(nil, cur) != nil {
			continue
		}
		data[k] = v
	}
	return data
}
