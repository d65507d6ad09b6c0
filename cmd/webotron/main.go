// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// webotron deploys static websites to AWS.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rescribe.xyz/webotron"
	"rescribe.xyz/webotron/internal/deploy"
	"rescribe.xyz/webotron/internal/metrics"
)

// BucketConn is what is needed for the bucket commands, which can
// also be run locally.
type BucketConn interface {
	Init() error
	GetRegion() string
	ListBuckets(ctx context.Context) ([]string, error)
	ListObjectsWithMeta(ctx context.Context, bucket string, prefix string) ([]webotron.ObjMeta, error)
	deploy.BucketSetuper
	deploy.Uploader
}

// NullWriter is used so non-verbose logging may be discarded
type NullWriter bool

func (w NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

var (
	profile     string
	region      string
	conntype    string
	verbose     bool
	metricsAddr string
	longList    bool
	concurrency int
	uploadRate  float64
)

var verboselog *log.Logger

var rootCmd = &cobra.Command{
	Use:          "webotron",
	Short:        "Webotron deploys websites to AWS.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			verboselog = log.New(os.Stdout, "", log.LstdFlags)
		} else {
			var n NullWriter
			verboselog = log.New(n, "", log.LstdFlags)
		}
		if metricsAddr != "" {
			metrics.StartMetricsServer(metricsAddr)
		}
	},
}

func awsConn() (*webotron.AwsConn, error) {
	conn := &webotron.AwsConn{Region: region, Profile: profile, Logger: verboselog}
	err := conn.Init()
	if err != nil {
		return nil, fmt.Errorf("Failed to set up cloud connection: %w", err)
	}
	return conn, nil
}

func bucketConn() (BucketConn, error) {
	var conn BucketConn
	switch conntype {
	case "aws":
		conn = &webotron.AwsConn{Region: region, Profile: profile, Logger: verboselog}
	case "local":
		conn = &webotron.LocalConn{Logger: verboselog}
	default:
		return nil, fmt.Errorf("Unknown connection type %q", conntype)
	}
	err := conn.Init()
	if err != nil {
		return nil, fmt.Errorf("Failed to set up cloud connection: %w", err)
	}
	return conn, nil
}

var listBucketsCmd = &cobra.Command{
	Use:   "list-buckets",
	Short: "List all S3 buckets.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := bucketConn()
		if err != nil {
			return err
		}
		buckets, err := conn.ListBuckets(cmd.Context())
		if err != nil {
			return err
		}
		for _, b := range buckets {
			fmt.Println(b)
		}
		return nil
	},
}

var listBucketObjectsCmd = &cobra.Command{
	Use:   "list-bucket-objects BUCKET",
	Short: "List objects in an S3 bucket.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := bucketConn()
		if err != nil {
			return err
		}
		objs, err := conn.ListObjectsWithMeta(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		for _, o := range objs {
			if longList {
				fmt.Printf("%10d  %s  %s\n", o.Size, o.Date.Format(time.RFC3339), o.Name)
			} else {
				fmt.Println(o.Name)
			}
		}
		return nil
	},
}

var setupBucketCmd = &cobra.Command{
	Use:   "setup-bucket BUCKET",
	Short: "Create and configure S3 bucket.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := bucketConn()
		if err != nil {
			return err
		}
		bucket := args[0]
		err = deploy.SetupBucket(cmd.Context(), conn, bucket)
		if err != nil {
			return err
		}
		url, err := webotron.WebsiteURL(bucket, conn.GetRegion())
		if err != nil {
			verboselog.Println("No website URL:", err)
			return nil
		}
		fmt.Println("Website URL:", url)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync PATHNAME BUCKET",
	Short: "Sync contents of PATHNAME to BUCKET.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := bucketConn()
		if err != nil {
			return err
		}
		n, err := deploy.Sync(cmd.Context(), conn, args[0], args[1], deploy.SyncOpts{
			Concurrency: concurrency,
			Rate:        uploadRate,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded %d files to %s\n", n, args[1])
		return nil
	},
}

var setupDomainCmd = &cobra.Command{
	Use:   "setup-domain DOMAIN",
	Short: "Configure DOMAIN to point to the S3 bucket of the same name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := awsConn()
		if err != nil {
			return err
		}
		domain := args[0]
		err = deploy.SetupDomain(cmd.Context(), conn, domain, conn.GetRegion())
		if err != nil {
			return err
		}
		fmt.Printf("Domain configured: http://%s\n", domain)
		return nil
	},
}

var findCertCmd = &cobra.Command{
	Use:   "find-cert DOMAIN",
	Short: "Find an issued ACM certificate matching DOMAIN.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := awsConn()
		if err != nil {
			return err
		}
		cert, err := deploy.FindCertificate(cmd.Context(), conn, args[0])
		if err != nil {
			return err
		}
		fmt.Println(cert.Arn)
		fmt.Println(strings.Join(cert.SubjectAlternativeNames, " "))
		return nil
	},
}

var setupCDNCmd = &cobra.Command{
	Use:   "setup-cdn DOMAIN",
	Short: "Set up CloudFront CDN and https for DOMAIN.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := awsConn()
		if err != nil {
			return err
		}
		domain := args[0]
		dist, err := deploy.SetupCDN(cmd.Context(), conn, domain)
		if err != nil {
			return err
		}
		fmt.Printf("Domain configured: https://%s (distribution %s)\n", domain, dist.Id)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profile, "profile", webotron.DefaultProfile, "Use a given AWS profile.")
	rootCmd.PersistentFlags().StringVar(&region, "region", webotron.DefaultRegion, "Specify AWS region.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while running")

	for _, c := range []*cobra.Command{listBucketsCmd, listBucketObjectsCmd, setupBucketCmd, syncCmd} {
		c.Flags().StringVarP(&conntype, "conn", "c", "aws", "connection type ('aws' or 'local')")
	}
	listBucketObjectsCmd.Flags().BoolVarP(&longList, "long", "l", false, "Show size and modification time")
	syncCmd.Flags().IntVar(&concurrency, "concurrency", deploy.DefaultConcurrency, "Number of files to upload at once")
	syncCmd.Flags().Float64Var(&uploadRate, "rate", 0, "Maximum uploads started per second (0 for no limit)")

	rootCmd.AddCommand(listBucketsCmd, listBucketObjectsCmd, setupBucketCmd, syncCmd,
		setupDomainCmd, findCertCmd, setupCDNCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = metrics.ShutdownMetricsServer(shutdownCtx)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}
