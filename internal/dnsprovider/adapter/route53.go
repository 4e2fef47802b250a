package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// route53Region is the fixed signing region for the global Route53 endpoint.
const route53Region = "us-east-1"

// route53API is the subset of the Route53 client the adapter uses.
type route53API interface {
	ListHostedZones(ctx context.Context, in *route53.ListHostedZonesInput, opts ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
	ListResourceRecordSets(ctx context.Context, in *route53.ListResourceRecordSetsInput, opts ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(ctx context.Context, in *route53.ChangeResourceRecordSetsInput, opts ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// route53Adapter is the IAM-credential-class variant, publishing records via
// ChangeResourceRecordSets UPSERT/DELETE batches with quoted TXT values.
type route53Adapter struct {
	providerID   string
	accessKeyRef string
	secretKeyRef string
	creds        CredentialResolver
	cache        ZoneCache
	resolver     *DoHResolver

	mu     sync.Mutex
	client route53API
}

// NewRoute53 creates a Route53 adapter. The AWS client is built lazily on
// first use so credentials resolve through the vault at call time.
func NewRoute53(
	providerID, accessKeyRef, secretKeyRef string,
	creds CredentialResolver,
	cache ZoneCache,
	resolver *DoHResolver,
) Adapter {
	return &route53Adapter{
		providerID:   providerID,
		accessKeyRef: accessKeyRef,
		secretKeyRef: secretKeyRef,
		creds:        creds,
		cache:        cache,
		resolver:     resolver,
	}
}

func (a *route53Adapter) Kind() dnsDomain.ProviderKind {
	return dnsDomain.KindRoute53
}

func (a *route53Adapter) api(ctx context.Context) (route53API, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	accessKey, err := resolveString(ctx, a.creds, a.accessKeyRef)
	if err != nil {
		return nil, err
	}
	secretKey, err := resolveString(ctx, a.creds, a.secretKeyRef)
	if err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(route53Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, dnsDomain.NewAdapterError(a.Kind(), dnsDomain.CategoryUnknown, "failed to build aws config", err)
	}

	a.client = route53.NewFromConfig(cfg)
	return a.client, nil
}

// mapAWSError translates SDK failures into the adapter taxonomy using the
// service error code.
func (a *route53Adapter) mapAWSError(operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	category := dnsDomain.CategoryNetworkError

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "InvalidClientTokenId",
			"SignatureDoesNotMatch", "UnrecognizedClientException":
			category = dnsDomain.CategoryAuthError
		case "NoSuchHostedZone":
			category = dnsDomain.CategoryNotFound
		case "Throttling", "ThrottlingException", "PriorRequestNotComplete":
			category = dnsDomain.CategoryRateLimited
		default:
			category = dnsDomain.CategoryUnknown
		}
	}

	message := fmt.Sprintf("%s failed", operation)
	return dnsDomain.NewAdapterError(a.Kind(), category, message, err)
}

// findZone discovers the hosted zone id managing fqdn, preferring the cache.
func (a *route53Adapter) findZone(ctx context.Context, fqdn string) (string, error) {
	for _, candidate := range candidateZones(fqdn) {
		if zoneID, ok := a.cache.Get(ctx, a.providerID, candidate); ok {
			return zoneID, nil
		}
	}

	client, err := a.api(ctx)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, 16)
	byName := make(map[string]string, 16)

	var marker *string
	for {
		out, err := client.ListHostedZones(ctx, &route53.ListHostedZonesInput{Marker: marker})
		if err != nil {
			return "", a.mapAWSError("ListHostedZones", err)
		}

		for _, zone := range out.HostedZones {
			name := strings.TrimSuffix(aws.ToString(zone.Name), ".")
			names = append(names, name)
			byName[name] = strings.TrimPrefix(aws.ToString(zone.Id), "/hostedzone/")
		}

		if !out.IsTruncated {
			break
		}
		marker = out.NextMarker
	}

	zoneName := pickZone(fqdn, names)
	if zoneName == "" {
		return "", dnsDomain.NewAdapterError(
			a.Kind(),
			dnsDomain.CategoryNotFound,
			fmt.Sprintf("no hosted zone found for %s", fqdn),
			nil,
		)
	}

	a.cache.Put(ctx, a.providerID, zoneName, byName[zoneName])
	return byName[zoneName], nil
}

// currentValues returns the existing quoted TXT values at the name, so upserts
// preserve unrelated values in the same record set.
func (a *route53Adapter) currentValues(ctx context.Context, zoneID, fqdn string) ([]string, error) {
	client, err := a.api(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(fqdn),
		StartRecordType: r53types.RRTypeTxt,
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return nil, a.mapAWSError("ListResourceRecordSets", err)
	}

	want := strings.TrimSuffix(fqdn, ".") + "."
	for _, set := range out.ResourceRecordSets {
		if set.Type != r53types.RRTypeTxt || aws.ToString(set.Name) != want {
			continue
		}
		values := make([]string, 0, len(set.ResourceRecords))
		for _, record := range set.ResourceRecords {
			values = append(values, aws.ToString(record.Value))
		}
		return values, nil
	}
	return nil, nil
}

// quoteTXT normalizes a value to the quoted-string form Route53 stores.
func quoteTXT(value string) string {
	return fmt.Sprintf("%q", value)
}

func (a *route53Adapter) change(ctx context.Context, zoneID string, action r53types.ChangeAction, fqdn string, values []string) error {
	client, err := a.api(ctx)
	if err != nil {
		return err
	}

	records := make([]r53types.ResourceRecord, 0, len(values))
	for _, value := range values {
		records = append(records, r53types.ResourceRecord{Value: aws.String(value)})
	}

	_, err = client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{
				{
					Action: action,
					ResourceRecordSet: &r53types.ResourceRecordSet{
						Name:            aws.String(fqdn),
						Type:            r53types.RRTypeTxt,
						TTL:             aws.Int64(60),
						ResourceRecords: records,
					},
				},
			},
		},
	})
	if err != nil {
		mapped := a.mapAWSError("ChangeResourceRecordSets", err)
		if dnsDomain.Categorize(mapped) == dnsDomain.CategoryNotFound {
			a.cache.Invalidate(ctx, a.providerID)
		}
		return mapped
	}
	return nil
}

// PresentTXT upserts the record set, merging the challenge value with any
// existing values at the name.
func (a *route53Adapter) PresentTXT(ctx context.Context, fqdn, value string) error {
	zoneID, err := a.findZone(ctx, fqdn)
	if err != nil {
		return err
	}

	existing, err := a.currentValues(ctx, zoneID, fqdn)
	if err != nil {
		return err
	}

	quoted := quoteTXT(value)
	values := make([]string, 0, len(existing)+1)
	for _, v := range existing {
		if v != quoted {
			values = append(values, v)
		}
	}
	values = append(values, quoted)

	return a.change(ctx, zoneID, r53types.ChangeActionUpsert, fqdn, values)
}

// CleanupTXT removes the challenge value. When it was the only value the whole
// record set is deleted; otherwise the set is upserted without it.
func (a *route53Adapter) CleanupTXT(ctx context.Context, fqdn, value string) error {
	zoneID, err := a.findZone(ctx, fqdn)
	if err != nil {
		return err
	}

	existing, err := a.currentValues(ctx, zoneID, fqdn)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	quoted := quoteTXT(value)
	remaining := make([]string, 0, len(existing))
	for _, v := range existing {
		if v != quoted {
			remaining = append(remaining, v)
		}
	}

	if len(remaining) == len(existing) {
		return nil
	}
	if len(remaining) == 0 {
		return a.change(ctx, zoneID, r53types.ChangeActionDelete, fqdn, existing)
	}
	return a.change(ctx, zoneID, r53types.ChangeActionUpsert, fqdn, remaining)
}

func (a *route53Adapter) VerifyPropagation(ctx context.Context, fqdn, value string) (dnsDomain.RecordState, error) {
	values, err := a.resolver.LookupTXT(ctx, fqdn)
	return classifyLookup(values, value, err), nil
}

// ValidateCredentials lists hosted zones, a read-only call.
func (a *route53Adapter) ValidateCredentials(ctx context.Context) error {
	client, err := a.api(ctx)
	if err != nil {
		return err
	}

	if _, err := client.ListHostedZones(ctx, &route53.ListHostedZonesInput{MaxItems: aws.Int32(1)}); err != nil {
		return a.mapAWSError("ListHostedZones", err)
	}
	return nil
}
