// Package codeindex is a trigram-indexed substring and regular expression
// search engine for source trees.
//
// An index maps every three-character window (trigram) of the indexed
// documents to a sorted list of document ids. A query is answered in two
// steps: intersecting the posting lists of the trigrams the query requires
// yields candidate documents, and each candidate is then loaded and checked
// against the real predicate.
//
// # Quick Start
//
// Build an index:
//
//	b := index.NewBuilder()
//	_, err := crawl.Walk(ctx, "./src", b)
//	err = b.WriteFile("src.idx")
//
// Search it:
//
//	ix, _ := index.Open("src.idx")
//	defer ix.Close()
//
//	rs := codeindex.NewResultSet(query.Contains("hello"), []*index.Index{ix})
//	defer rs.Close()
//	rs.Subscribe(func(ev codeindex.Event) {
//	    if ev.Kind == codeindex.EventInserted {
//	        for i := ev.Position; i < ev.Position+ev.Count; i++ {
//	            fmt.Println(rs.At(i).Path)
//	        }
//	    }
//	})
//	err := rs.Populate(ctx)
//
// # Lifecycle
//
// A ResultSet moves from Idle through Populating to Populated exactly once.
// Cancel (or cancelling the context given to Populate) stops the search;
// Populate then returns ErrCancelled and the results delivered so far stay
// readable.
//
// # Limitations
//
// Results arrive in verification order, not ranked. A query that requires no
// trigram, such as a needle shorter than three characters or a regular
// expression without a mandatory literal, finds nothing.
package codeindex
