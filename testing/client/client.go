package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dipin13k/code-snippets/client"
	"github.com/dipin13k/code-snippets/snippet"
)

var (
	flagAddr   = flag.String("addr", "http://127.0.0.1:8080/snippets", "set addr")
	flagAdd    = flag.Bool("add", false, "add a throwaway snippet every round")
	flagSearch = flag.String("search", "", "search the collection instead of listing it")
	flagExport = flag.Bool("export", false, "export the collection once after the rounds")
	flagNum    = flag.Int("num", 100, "num repititions")
	flagDelay  = flag.Int("delay", 2, "delay in seconds")
)

func main() {

	flag.Parse()

	c, errClient := client.NewHTTPClient(*flagAddr)
	if errClient != nil {
		log.Fatal(errClient)
	}

	ctx := context.Background()

	for i := 1; i <= *flagNum; i++ {

		if *flagAdd {
			go func(num int) {
				log.Println("start add", num)
				resp, errAdd := c.Add(ctx, snippet.Fields{
					Title:    fmt.Sprintf("load test %d", num),
					Language: "go",
					Code:     "package main",
				})
				if errAdd != nil {
					log.Fatal(errAdd)
				}
				log.Println(num, "add done", resp.Success, "collection size", resp.Stats.NumberOfSnippets)
			}(i)
		}

		if *flagSearch != "" {
			go func(num int) {
				log.Println("search", num)
				resp, err := c.Search(ctx, *flagSearch)
				if err != nil {
					log.Fatal("failed to search")
				}
				log.Println(num, "search done, got", len(resp), "snippets")
			}(i)
		} else {
			go func(num int) {
				resp, err := c.List(ctx)
				if err != nil {
					log.Fatal("failed to list")
				}
				log.Println(num, "list done, got", len(resp), "snippets")
			}(i)
		}

		time.Sleep(time.Duration(*flagDelay) * time.Second)
	}

	if *flagExport {
		exported, errExport := c.ExportData(ctx)
		if errExport != nil {
			log.Fatal(errExport)
		}
		log.Println("exported", len(exported), "snippets")
	}

	log.Println("done!")
}
