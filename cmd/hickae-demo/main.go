package main

import (
	"fmt"
	"log"

	hickae "github.com/Alfred-hhy/HICKAE-DB"
)

func main() {
	n := 3

	sys, err := hickae.New(hickae.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	pp, _, err := sys.Initialize(n)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := sys.GenerateIdentities(n); err != nil {
		log.Fatal(err)
	}
	corr, cb, err := sys.Precompute()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("=== Multi-Writer Searchable Encryption ===\n")
	fmt.Printf("Curve %s, %d writers, epoch %s\n", pp.Curve, pp.Writers, pp.Epoch)
	fmt.Printf("Correlation table %dx%d, class binding tag %x...\n\n", corr.Writers(), corr.Writers(), cb.Tag[:6])

	// Writer 1 indexes doc-17 under "invoice".
	tok, err := sys.Encode(1, "invoice", []byte("doc-17"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Writer 1 encoded %q with payload %q\n\n", "invoice", tok.Payload())

	cases := []struct {
		subset  []int
		keyword string
		want    bool
	}{
		{[]int{0, 1, 2}, "invoice", true},
		{[]int{1}, "invoice", true},
		{[]int{0, 2}, "invoice", false},
		{[]int{1}, "receipt", false},
	}

	fmt.Println("=== Testing aggregate keys against the token ===")
	for _, c := range cases {
		key, err := sys.Extract(c.subset, c.keyword)
		if err != nil {
			log.Fatal(err)
		}
		got := hickae.Test(key, tok)
		mark := "✓"
		if got != c.want {
			mark = "✗"
		}
		fmt.Printf("S=%-9v w=%-8q match=%-5v expected=%-5v %s\n", c.subset, c.keyword, got, c.want, mark)
	}

	tm := sys.Timings()
	fmt.Println("\n=== Setup timings ===")
	fmt.Printf("Setup %v, KeyGen %v, IGen %v, Prep %v\n", tm.Setup, tm.KeyGen, tm.IGen, tm.Prep)
}
