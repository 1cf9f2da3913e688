// Package search turns a question into a bounded block of background text.
//
// A Provider asks an Engine for candidate URLs, fetches them concurrently
// with a Fetcher, keeps only HTML pages whose bytes are UTF-8, reduces each
// page to its text with all whitespace removed, and joins the results into a
// context of at most domain.MaxContextChars code points.
//
// Engine errors are returned to the caller so a retry controller can act on
// them. Fetch failures never are: a page that cannot be retrieved is simply
// absent from the result.
package search
