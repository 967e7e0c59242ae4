package cache

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/linkrank/internal/model"
)

// Params are the solver parameters that influence the scores.
type Params struct {
	Alpha         float64
	Tolerance     float64
	MaxIterations int
}

// Fingerprint returns a hex SHA3-256 digest identifying the link structure
// of docs and the solver parameters. Record order, duplicate or blank
// links and page text do not affect it.
func Fingerprint(docs []model.CrawledDocument, params Params) string {
	links := make(map[string]map[string]struct{}, len(docs))
	for _, doc := range docs {
		set, ok := links[doc.URL]
		if !ok {
			set = make(map[string]struct{})
			links[doc.URL] = set
		}
		for _, target := range doc.UniqueLinks() {
			set[target] = struct{}{}
		}
	}

	urls := make([]string, 0, len(links))
	for url := range links {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	h := sha3.New256()
	writeFloat(h, params.Alpha)
	writeFloat(h, params.Tolerance)
	writeUint(h, uint64(max(params.MaxIterations, 0)))

	for _, url := range urls {
		writeString(h, url)

		targets := make([]string, 0, len(links[url]))
		for target := range links[url] {
			targets = append(targets, target)
		}
		sort.Strings(targets)

		writeUint(h, uint64(len(targets)))
		for _, target := range targets {
			writeString(h, target)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

type writer interface {
	Write(p []byte) (int, error)
}

// writeString writes a length-prefixed string so concatenations cannot collide.
func writeString(w writer, s string) {
	writeUint(w, uint64(len(s)))
	_, _ = w.Write([]byte(s))
}

func writeUint(w writer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

func writeFloat(w writer, f float64) {
	writeUint(w, math.Float64bits(f))
}
