// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package webotron

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/acm"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"rescribe.xyz/webotron/internal/resolve"
)

// CloudFront only accepts certificates issued in this region
const certRegion = "us-east-1"

// ACM allows 10 DescribeCertificate calls per second
const describeRate = 8

type ObjMeta struct {
	Name string
	Date time.Time
	Size int64
}

// AliasTarget is the destination of a Route 53 alias record
type AliasTarget struct {
	DNSName, ZoneId string
}

type Distribution struct {
	Id, DomainName, Status string
	Aliases                []string
}

type Label struct {
	Timestamp  int64    `dynamodbav:"timestamp"`
	Name       string   `dynamodbav:"name"`
	Confidence float64  `dynamodbav:"confidence"`
	Parents    []string `dynamodbav:"parents,omitempty"`
}

// VideoLabels is the record stored for each analysed video
type VideoLabels struct {
	VideoName   string  `dynamodbav:"videoName"`
	VideoBucket string  `dynamodbav:"videoBucket"`
	Labels      []Label `dynamodbav:"labels"`
}

// AwsConn contains the necessary things to interact with various AWS
// services in ways useful for deploying websites and processing
// videos.
type AwsConn struct {
	// these should be set before running Init(), or left to defaults
	Region  string
	Profile string
	Logger  *log.Logger

	sess          *session.Session
	s3svc         *s3.S3
	r53svc        *route53.Route53
	acmsvc        *acm.ACM
	cfsvc         *cloudfront.CloudFront
	asgsvc        *autoscaling.AutoScaling
	rekogsvc      *rekognition.Rekognition
	dynamosvc     *dynamodb.DynamoDB
	uploader      *s3manager.Uploader
	describeLimit *rate.Limiter
}

// MinimalInit does the bare minimum to initialise aws services
func (a *AwsConn) MinimalInit() error {
	if a.Region == "" {
		a.Region = DefaultRegion
	}
	if a.Logger == nil {
		a.Logger = log.New(os.Stdout, "", 0)
	}

	var err error
	a.sess, err = session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(a.Region)},
		Profile:           a.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return fmt.Errorf("Failed to set up aws session: %w", err)
	}
	a.s3svc = s3.New(a.sess)
	a.uploader = s3manager.NewUploader(a.sess)

	return nil
}

// Init initialises all of the aws services used
func (a *AwsConn) Init() error {
	err := a.MinimalInit()
	if err != nil {
		return err
	}

	a.r53svc = route53.New(a.sess)
	a.acmsvc = acm.New(a.sess, aws.NewConfig().WithRegion(certRegion))
	a.cfsvc = cloudfront.New(a.sess)
	a.asgsvc = autoscaling.New(a.sess)
	a.rekogsvc = rekognition.New(a.sess)
	a.dynamosvc = dynamodb.New(a.sess)
	a.describeLimit = rate.NewLimiter(describeRate, 1)

	return nil
}

func (a *AwsConn) GetRegion() string {
	return a.Region
}

func (a *AwsConn) ListBuckets(ctx context.Context) ([]string, error) {
	var names []string
	out, err := a.s3svc.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return names, err
	}
	for _, b := range out.Buckets {
		names = append(names, aws.StringValue(b.Name))
	}
	return names, nil
}

func (a *AwsConn) ListObjects(ctx context.Context, bucket string, prefix string) ([]string, error) {
	var names []string
	objs, err := a.ListObjectsWithMeta(ctx, bucket, prefix)
	for _, o := range objs {
		names = append(names, o.Name)
	}
	return names, err
}

func (a *AwsConn) ListObjectsWithMeta(ctx context.Context, bucket string, prefix string) ([]ObjMeta, error) {
	var objs []ObjMeta
	err := a.s3svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, r := range page.Contents {
			objs = append(objs, ObjMeta{
				Name: aws.StringValue(r.Key),
				Date: aws.TimeValue(r.LastModified),
				Size: aws.Int64Value(r.Size),
			})
		}
		return true
	})
	return objs, err
}

// CreateBucket creates a new S3 bucket. A bucket we already own is not
// considered an error.
func (a *AwsConn) CreateBucket(ctx context.Context, name string) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}
	// us-east-1 is the default location, and is rejected if given explicitly
	if a.Region != "us-east-1" {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(a.Region),
		}
	}
	_, err := a.s3svc.CreateBucketWithContext(ctx, input)
	if err != nil {
		aerr, ok := err.(awserr.Error)
		if ok && aerr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou {
			a.Logger.Println("Bucket already exists:", name)
		} else {
			return fmt.Errorf("Error creating bucket %s: %w", name, err)
		}
	}
	return nil
}

// DeletePublicAccessBlock removes the bucket's Block Public Access
// settings, so that a public bucket policy can be applied.
func (a *AwsConn) DeletePublicAccessBlock(ctx context.Context, bucket string) error {
	_, err := a.s3svc.DeletePublicAccessBlockWithContext(ctx, &s3.DeletePublicAccessBlockInput{
		Bucket: aws.String(bucket),
	})
	return err
}

func (a *AwsConn) PutBucketPolicy(ctx context.Context, bucket string, policy string) error {
	_, err := a.s3svc.PutBucketPolicyWithContext(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	})
	return err
}

// ConfigureWebsite enables static website hosting for a bucket
func (a *AwsConn) ConfigureWebsite(ctx context.Context, bucket string, index string, errdoc string) error {
	_, err := a.s3svc.PutBucketWebsiteWithContext(ctx, &s3.PutBucketWebsiteInput{
		Bucket: aws.String(bucket),
		WebsiteConfiguration: &s3.WebsiteConfiguration{
			IndexDocument: &s3.IndexDocument{Suffix: aws.String(index)},
			ErrorDocument: &s3.ErrorDocument{Key: aws.String(errdoc)},
		},
	})
	return err
}

// ContentType guesses the content type of a key from its extension,
// falling back to text/plain.
func ContentType(key string) string {
	t := mime.TypeByExtension(filepath.Ext(key))
	if t == "" {
		return "text/plain"
	}
	return t
}

// Upload uploads the file at path to bucket as key, returning the
// number of bytes sent.
func (a *AwsConn) Upload(ctx context.Context, bucket string, key string, path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}

	_, err = a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(ContentType(key)),
		Body:        file,
	})
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ListHostedZones returns every hosted zone in the account, in the
// order Route 53 returns them.
func (a *AwsConn) ListHostedZones(ctx context.Context) ([]resolve.HostedZone, error) {
	var zones []resolve.HostedZone
	err := a.r53svc.ListHostedZonesPagesWithContext(ctx, &route53.ListHostedZonesInput{},
		func(page *route53.ListHostedZonesOutput, last bool) bool {
			for _, z := range page.HostedZones {
				zones = append(zones, resolve.HostedZone{
					Name: aws.StringValue(z.Name),
					Id:   aws.StringValue(z.Id),
				})
			}
			return true
		})
	return zones, err
}

// CreateHostedZone creates a new public hosted zone
func (a *AwsConn) CreateHostedZone(ctx context.Context, name string) (resolve.HostedZone, error) {
	out, err := a.r53svc.CreateHostedZoneWithContext(ctx, &route53.CreateHostedZoneInput{
		Name:            aws.String(name),
		CallerReference: aws.String(uuid.NewString()),
	})
	if err != nil {
		return resolve.HostedZone{}, fmt.Errorf("Error creating hosted zone %s: %w", name, err)
	}
	return resolve.HostedZone{
		Name: aws.StringValue(out.HostedZone.Name),
		Id:   aws.StringValue(out.HostedZone.Id),
	}, nil
}

// UpsertAliasRecord creates or replaces an A record in a zone which
// aliases name to target.
func (a *AwsConn) UpsertAliasRecord(ctx context.Context, zoneId string, name string, target AliasTarget) error {
	_, err := a.r53svc.ChangeResourceRecordSetsWithContext(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneId),
		ChangeBatch: &route53.ChangeBatch{
			Changes: []*route53.Change{
				{
					Action: aws.String(route53.ChangeActionUpsert),
					ResourceRecordSet: &route53.ResourceRecordSet{
						Name: aws.String(name),
						Type: aws.String(route53.RRTypeA),
						AliasTarget: &route53.AliasTarget{
							DNSName:              aws.String(target.DNSName),
							HostedZoneId:         aws.String(target.ZoneId),
							EvaluateTargetHealth: aws.Bool(false),
						},
					},
				},
			},
		},
	})
	return err
}

// ListIssuedCertificates returns every issued certificate along with
// its subject alternative names. Each certificate has to be described
// separately to get the names, so these calls are rate limited.
func (a *AwsConn) ListIssuedCertificates(ctx context.Context) ([]resolve.Certificate, error) {
	var arns []string
	err := a.acmsvc.ListCertificatesPagesWithContext(ctx, &acm.ListCertificatesInput{
		CertificateStatuses: aws.StringSlice([]string{acm.CertificateStatusIssued}),
	}, func(page *acm.ListCertificatesOutput, last bool) bool {
		for _, s := range page.CertificateSummaryList {
			arns = append(arns, aws.StringValue(s.CertificateArn))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("Error listing certificates: %w", err)
	}

	var certs []resolve.Certificate
	for _, arn := range arns {
		err = a.describeLimit.Wait(ctx)
		if err != nil {
			return certs, err
		}
		out, err := a.acmsvc.DescribeCertificateWithContext(ctx, &acm.DescribeCertificateInput{
			CertificateArn: aws.String(arn),
		})
		if err != nil {
			return certs, fmt.Errorf("Error describing certificate %s: %w", arn, err)
		}
		certs = append(certs, resolve.Certificate{
			Arn:                     arn,
			SubjectAlternativeNames: aws.StringValueSlice(out.Certificate.SubjectAlternativeNames),
		})
	}
	return certs, nil
}

func (a *AwsConn) ListDistributions(ctx context.Context) ([]Distribution, error) {
	var dists []Distribution
	err := a.cfsvc.ListDistributionsPagesWithContext(ctx, &cloudfront.ListDistributionsInput{},
		func(page *cloudfront.ListDistributionsOutput, last bool) bool {
			if page.DistributionList == nil {
				return false
			}
			for _, d := range page.DistributionList.Items {
				var aliases []string
				if d.Aliases != nil {
					aliases = aws.StringValueSlice(d.Aliases.Items)
				}
				dists = append(dists, Distribution{
					Id:         aws.StringValue(d.Id),
					DomainName: aws.StringValue(d.DomainName),
					Status:     aws.StringValue(d.Status),
					Aliases:    aliases,
				})
			}
			return true
		})
	return dists, err
}

// CreateDistribution creates a CloudFront distribution serving the
// S3 bucket named after domain over https, using the given
// certificate.
func (a *AwsConn) CreateDistribution(ctx context.Context, domain string, certArn string) (Distribution, error) {
	originId := "S3-" + domain

	out, err := a.cfsvc.CreateDistributionWithContext(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: &cloudfront.DistributionConfig{
			CallerReference: aws.String(uuid.NewString()),
			Comment:         aws.String(distComment),
			DefaultCacheBehavior: &cloudfront.DefaultCacheBehavior{
				ForwardedValues: &cloudfront.ForwardedValues{
					Cookies:              &cloudfront.CookiePreference{Forward: aws.String(distCookieForward)},
					QueryString:          aws.Bool(false),
					Headers:              &cloudfront.Headers{Quantity: aws.Int64(0)},
					QueryStringCacheKeys: &cloudfront.QueryStringCacheKeys{Quantity: aws.Int64(0)},
				},
				MinTTL:               aws.Int64(distMinTTL),
				DefaultTTL:           aws.Int64(distDefaultTTL),
				TargetOriginId:       aws.String(originId),
				TrustedSigners:       &cloudfront.TrustedSigners{Enabled: aws.Bool(false), Quantity: aws.Int64(0)},
				ViewerProtocolPolicy: aws.String(distViewerPolicy),
			},
			Enabled: aws.Bool(true),
			Origins: &cloudfront.Origins{
				Items: []*cloudfront.Origin{
					{
						DomainName:     aws.String(domain + ".s3.amazonaws.com"),
						Id:             aws.String(originId),
						S3OriginConfig: &cloudfront.S3OriginConfig{OriginAccessIdentity: aws.String("")},
					},
				},
				Quantity: aws.Int64(1),
			},
			Aliases: &cloudfront.Aliases{
				Items:    aws.StringSlice([]string{domain}),
				Quantity: aws.Int64(1),
			},
			DefaultRootObject: aws.String(IndexDocument),
			ViewerCertificate: &cloudfront.ViewerCertificate{
				ACMCertificateArn:      aws.String(certArn),
				SSLSupportMethod:       aws.String(distSSLSupport),
				MinimumProtocolVersion: aws.String(distProtocol),
			},
		},
	})
	if err != nil {
		return Distribution{}, fmt.Errorf("Error creating distribution for %s: %w", domain, err)
	}
	return Distribution{
		Id:         aws.StringValue(out.Distribution.Id),
		DomainName: aws.StringValue(out.Distribution.DomainName),
		Status:     aws.StringValue(out.Distribution.Status),
		Aliases:    []string{domain},
	}, nil
}

// WaitForDeploy blocks until a distribution has finished deploying,
// which can take a good while.
func (a *AwsConn) WaitForDeploy(ctx context.Context, id string) (Distribution, error) {
	input := &cloudfront.GetDistributionInput{Id: aws.String(id)}
	err := a.cfsvc.WaitUntilDistributionDeployedWithContext(ctx, input)
	if err != nil {
		return Distribution{}, fmt.Errorf("Error waiting for distribution %s: %w", id, err)
	}
	out, err := a.cfsvc.GetDistributionWithContext(ctx, input)
	if err != nil {
		return Distribution{}, err
	}
	d := Distribution{
		Id:         aws.StringValue(out.Distribution.Id),
		DomainName: aws.StringValue(out.Distribution.DomainName),
		Status:     aws.StringValue(out.Distribution.Status),
	}
	if c := out.Distribution.DistributionConfig; c != nil && c.Aliases != nil {
		d.Aliases = aws.StringValueSlice(c.Aliases.Items)
	}
	return d, nil
}

func (a *AwsConn) ExecutePolicy(ctx context.Context, group string, policy string) error {
	_, err := a.asgsvc.ExecutePolicyWithContext(ctx, &autoscaling.ExecutePolicyInput{
		AutoScalingGroupName: aws.String(group),
		PolicyName:           aws.String(policy),
	})
	return err
}

// StartLabelDetection starts an asynchronous label detection job on a
// video in S3. Rekognition publishes to the SNS topic when the job is
// complete.
func (a *AwsConn) StartLabelDetection(ctx context.Context, bucket string, key string, topicArn string, roleArn string) (string, error) {
	out, err := a.rekogsvc.StartLabelDetectionWithContext(ctx, &rekognition.StartLabelDetectionInput{
		Video: &rekognition.Video{
			S3Object: &rekognition.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		NotificationChannel: &rekognition.NotificationChannel{
			SNSTopicArn: aws.String(topicArn),
			RoleArn:     aws.String(roleArn),
		},
	})
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.JobId), nil
}

// GetLabelDetection gets all labels found by a label detection job
func (a *AwsConn) GetLabelDetection(ctx context.Context, jobId string) ([]Label, error) {
	var labels []Label
	input := &rekognition.GetLabelDetectionInput{JobId: aws.String(jobId)}
	for {
		out, err := a.rekogsvc.GetLabelDetectionWithContext(ctx, input)
		if err != nil {
			return labels, fmt.Errorf("Error getting labels for job %s: %w", jobId, err)
		}
		for _, l := range out.Labels {
			if l.Label == nil {
				continue
			}
			var parents []string
			for _, p := range l.Label.Parents {
				parents = append(parents, aws.StringValue(p.Name))
			}
			labels = append(labels, Label{
				Timestamp:  aws.Int64Value(l.Timestamp),
				Name:       aws.StringValue(l.Label.Name),
				Confidence: aws.Float64Value(l.Label.Confidence),
				Parents:    parents,
			})
		}
		if aws.StringValue(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}
	return labels, nil
}

func (a *AwsConn) PutVideoLabels(ctx context.Context, table string, v VideoLabels) error {
	item, err := dynamodbattribute.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("Error encoding labels for %s: %w", v.VideoName, err)
	}
	_, err = a.dynamosvc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

// GetVideoLabels gets the stored labels of a video. The boolean is
// false if the video has not been stored.
func (a *AwsConn) GetVideoLabels(ctx context.Context, table string, name string) (VideoLabels, bool, error) {
	var v VideoLabels
	out, err := a.dynamosvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]*dynamodb.AttributeValue{
			"videoName": {S: aws.String(name)},
		},
	})
	if err != nil {
		return v, false, err
	}
	if len(out.Item) == 0 {
		return v, false, nil
	}
	err = dynamodbattribute.UnmarshalMap(out.Item, &v)
	return v, err == nil, err
}

func (a *AwsConn) GetLogger() *log.Logger {
	return a.Logger
}

// Log records an item in the with the Logger. Arguments are handled
// as with fmt.Println.
func (a *AwsConn) Log(v ...interface{}) {
	a.Logger.Println(v...)
}
