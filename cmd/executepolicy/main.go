// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// executepolicy runs an autoscaling policy, for example to scale up
// a group and check that notifications about it arrive.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"rescribe.xyz/webotron"
)

const usage = `Usage: executepolicy [-profile profile] [-region region] [-g group] [-p policy]

Executes an autoscaling policy on an autoscaling group.
`

type ScalingPolicyExecuter interface {
	Init() error
	ExecutePolicy(ctx context.Context, group string, policy string) error
}

func main() {
	profile := flag.String("profile", webotron.DefaultProfile, "AWS profile to use")
	region := flag.String("region", webotron.DefaultRegion, "AWS region")
	group := flag.String("g", webotron.ScalingGroup, "autoscaling group name")
	policy := flag.String("p", webotron.ScalingPolicy, "policy name")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	var conn ScalingPolicyExecuter
	conn = &webotron.AwsConn{Region: *region, Profile: *profile}
	err := conn.Init()
	if err != nil {
		log.Fatalln("Failed to set up cloud connection:", err)
	}

	log.Printf("Executing policy %q on %q\n", *policy, *group)
	err = conn.ExecutePolicy(context.Background(), *group, *policy)
	if err != nil {
		log.Fatalln("Failed to execute policy:", err)
	}
	log.Println("Policy executed successfully")
}
