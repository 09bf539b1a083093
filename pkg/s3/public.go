package s3

import (
	"net/url"
	"strings"
)

// publicBase is the prefix under which bucket objects are publicly served,
// already joined with the escaped bucket name.
type publicBase string

func newPublicBase(base, bucket string) publicBase {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return ""
	}
	return publicBase(base + "/" + url.PathEscape(bucket))
}

func (p publicBase) url(key string) string {
	key = strings.TrimLeft(key, "/")
	if p == "" || key == "" {
		return ""
	}
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return string(p) + "/" + strings.Join(segs, "/")
}
