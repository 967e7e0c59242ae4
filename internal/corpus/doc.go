// Package corpus reads crawled-page records for ranking.
//
// A Source supplies the full sequence of CrawledDocument records of one
// corpus. Two sources are provided:
//   - DirSource reads a directory of JSON records as written by the crawler
//     ({"url": ..., "url_lists": [...], "title": ..., "text": ...})
//   - DBSource reads the documents stored in the linkrank database
//
// Record order is irrelevant to ranking, but both sources return documents
// in a stable order (file name or URL) so runs are reproducible.
package corpus
