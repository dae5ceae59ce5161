package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/javi11/rarblock"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <archive.rar> [more.rar ...]", os.Args[0])
	}

	// listing JSON; set RARBLOCK_DEBUG=1 to trace every block on stderr
	listings, err := rarblock.ListArchives(context.Background(), rarblock.OSFileSystem(), os.Args[1:], 0)
	if err != nil {
		log.Fatalf("error listing archives: %v", err)
	}
	b, _ := json.MarshalIndent(struct {
		Archives []*rarblock.ArchiveListing `json:"archives"`
		Summary  rarblock.Summary           `json:"summary"`
	}{listings, rarblock.Summarize(listings)}, "", "  ")
	fmt.Println(string(b))
}
