// oaiharvest talks to OAI-PMH repositories.
//
//	$ oaiharvest identify http://export.arxiv.org/oai2
//	$ oaiharvest records --prefix oai_dc --from 2015-01-01 --window monthly http://export.arxiv.org/oai2 > metadata.xml
//	$ oaiharvest info < endpoints.txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
