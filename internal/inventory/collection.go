package inventory

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"nodekit/internal/distro"
)

// Collection is the ordered set of locally available versions of one tool
// kind. Node and Yarn keys are plain versions, package keys are
// name@version. The type parameter keeps collections of different kinds
// from being mixed.
type Collection[T distro.Tag] struct {
	keys []string
}

func newCollection[T distro.Tag](keys []string) Collection[T] {
	var c Collection[T]
	for _, k := range keys {
		c.Insert(k)
	}
	return c
}

// Kind reports the tool kind the collection holds.
func (c *Collection[T]) Kind() distro.Kind {
	var tag T
	return tag.Kind()
}

func (c *Collection[T]) Contains(key string) bool {
	i := sort.Search(len(c.keys), func(i int) bool { return !less(c.keys[i], key) })
	return i < len(c.keys) && c.keys[i] == key
}

// Insert adds key, reporting false when it was already present.
func (c *Collection[T]) Insert(key string) bool {
	i := sort.Search(len(c.keys), func(i int) bool { return !less(c.keys[i], key) })
	if i < len(c.keys) && c.keys[i] == key {
		return false
	}
	c.keys = append(c.keys, "")
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = key
	return true
}

// Versions returns the keys in ascending order.
func (c *Collection[T]) Versions() []string {
	return append([]string(nil), c.keys...)
}

func (c *Collection[T]) Len() int { return len(c.keys) }

// less orders by package name first, then by version precedence.
func less(a, b string) bool {
	an, av := splitKey(a)
	bn, bv := splitKey(b)
	if an != bn {
		return an < bn
	}
	if cmp := semver.Compare("v"+av, "v"+bv); cmp != 0 {
		return cmp < 0
	}
	return av < bv
}

func splitKey(key string) (name, version string) {
	i := strings.LastIndex(key, "@")
	if i <= 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}
