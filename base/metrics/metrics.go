/*Package metrics wraps datadog-go to facilitate metric recording
Following are naming convention of metric:
- Internal process time: *.time
- Error: *.err
- Warning: *.warn
*/
package metrics

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/the-gavel/goapi/base/env"
)

const (
	// TagValueNA is used for tags whose values are not available.
	TagValueNA = "n/a"
)

// Ender provides interface for BumpTime
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

type impl struct {
	pfx    string
	tags   []string
	client statsCli
}

// New creates a metric client with package name as prefix. Metrics go to the
// dogstatsd agent when `datadog_host` is configured and to debug logs
// otherwise.
func New(pkgName string) Service {
	tags := []string{
		// using host removes all tags associated with host
		"host:",
		"pod:" + env.PodName(),
		"env:" + viper.GetString("env_name"),
		"app:" + viper.GetString("app_name"),
	}
	return &impl{
		pfx:    pkgName + ".",
		tags:   tags,
		client: getClient(),
	}
}

func (im *impl) BumpAvg(key string, val float64, tags ...string) {
	im.client.Gauge(im.pfx+key, val, im.mergeTags(tags), ddRate)
}

func (im *impl) BumpSum(key string, val float64, tags ...string) {
	im.client.Count(im.pfx+key, int64(val), im.mergeTags(tags), ddRate)
}

func (im *impl) BumpHistogram(key string, val float64, tags ...string) {
	im.client.Histogram(im.pfx+key, val, im.mergeTags(tags), ddRate)
}

type ender struct {
	im    *impl
	key   string
	tags  []string
	start time.Time
}

func (e *ender) End() {
	ms := float64(time.Since(e.start)) / float64(time.Millisecond)
	e.im.client.TimeInMilliseconds(e.im.pfx+e.key, ms, e.im.mergeTags(e.tags), ddRate)
}

func (im *impl) BumpTime(key string, tags ...string) Ender {
	return &ender{im: im, key: key, tags: tags, start: time.Now()}
}

// mergeTags converts ("k1", "v1", "k2", "v2") pairs into datadog tag form and
// appends the service-level tags.
func (im *impl) mergeTags(kvs []string) []string {
	tags := make([]string, 0, len(kvs)/2+len(im.tags))
	for i := 0; i+1 < len(kvs); i += 2 {
		v := kvs[i+1]
		if len(v) == 0 {
			v = TagValueNA
		}
		tags = append(tags, strings.ToLower(kvs[i])+":"+v)
	}
	return append(tags, im.tags...)
}
