// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// labelgraph creates a graph of the labels found in a video
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"rescribe.xyz/webotron"
)

const usage = `Usage: labelgraph [-profile profile] [-region region] [-t table] video graph.png

Creates a graph showing the confidence of the most common labels found
in a video over its duration, from the labels stored by the
handleprocessedvideo handler.
`

type LabelGetter interface {
	Init() error
	GetVideoLabels(ctx context.Context, table string, name string) (webotron.VideoLabels, bool, error)
}

func main() {
	profile := flag.String("profile", webotron.DefaultProfile, "AWS profile to use")
	region := flag.String("region", webotron.DefaultRegion, "AWS region")
	table := flag.String("t", os.Getenv(webotron.EnvVideoTable), "DynamoDB table the labels are stored in")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 || *table == "" {
		flag.Usage()
		os.Exit(2)
	}

	var conn LabelGetter
	conn = &webotron.AwsConn{Region: *region, Profile: *profile}
	err := conn.Init()
	if err != nil {
		log.Fatalln("Failed to set up cloud connection:", err)
	}

	v, found, err := conn.GetVideoLabels(context.Background(), *table, flag.Arg(0))
	if err != nil {
		log.Fatalln("Error getting labels:", err)
	}
	if !found {
		log.Fatalf("No labels found for %s in %s\n", flag.Arg(0), *table)
	}

	f, err := os.Create(flag.Arg(1))
	if err != nil {
		log.Fatalln("Error creating file:", err)
	}
	defer f.Close()
	err = webotron.LabelGraph(v.Labels, v.VideoName, f)
	if err != nil {
		log.Fatalln("Error creating graph:", err)
	}
}
