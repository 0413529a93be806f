package gateway

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/garrettmk/broccoli/cache"
	"github.com/garrettmk/broccoli/kvstore"
	"github.com/garrettmk/broccoli/metrics"
	"github.com/garrettmk/broccoli/schemas"
	"github.com/garrettmk/broccoli/sections"
	"github.com/garrettmk/broccoli/signer"
	"github.com/garrettmk/broccoli/throttler"
)

// fakeClient is a canned httpClient: it returns response bodies from a
// queue, in call order, and records every request it was handed.
type fakeClient struct {
	bodies    [][]byte
	callCount int
	lastURL   string
	lastMeth  string
}

func (f *fakeClient) Do(_ context.Context, method, url string, _ []byte) ([]byte, int, error) {
	f.lastMeth = method
	f.lastURL = url
	body := f.bodies[f.callCount%len(f.bodies)]
	f.callCount++
	return body, 200, nil
}

func newTestGateway(t *testing.T, client httpClient) (*Gateway, *fakeClient) {
	t.Helper()
	creds := &schemas.Credentials{
		AccessKey: "AKIA_TEST", SecretKey: "secret", SellerID: "A1SELLER",
		Domain: "NA", DefaultMarket: "US",
	}
	store := kvstore.NewMemoryStore()
	fc, ok := client.(*fakeClient)
	require.True(t, ok)

	gw := &Gateway{
		creds:     creds,
		signer:    signer.New(creds),
		throttler: throttler.New(store, nil, 200*time.Second),
		cache:     cache.New(store, nil),
		sections:  sections.DefaultRegistry,
		client:    fc,
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	return gw, fc
}

const serviceStatusOK = `<GetServiceStatusResponse><GetServiceStatusResult><Status>GREEN</Status></GetServiceStatusResult></GetServiceStatusResponse>`

func TestInvokeCachesServiceStatusAcrossCalls(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(serviceStatusOK)}}
	gw, fc := newTestGateway(t, fc)

	result1, err := gw.Invoke(context.Background(), "products.GetServiceStatus", nil, map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "GREEN", result1)
	require.Equal(t, 1, fc.callCount)

	result2, err := gw.Invoke(context.Background(), "products.GetServiceStatus", nil, map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "GREEN", result2)
	require.Equal(t, 1, fc.callCount, "second call should be served from cache, not dispatch a second request")
}

const listMatchingProductsOK = `<ListMatchingProductsResponse>
<ListMatchingProductsResult>
<Products>
<Product>
  <Identifiers><MarketplaceASIN><ASIN>B000TEST</ASIN></MarketplaceASIN></Identifiers>
  <AttributeSets><ItemAttributes>
    <Title>Test Widget</Title>
    <Brand>Acme</Brand>
    <ListPrice><Amount>19.99</Amount><CurrencyCode>USD</CurrencyCode></ListPrice>
  </ItemAttributes></AttributeSets>
</Product>
</Products>
</ListMatchingProductsResult>
</ListMatchingProductsResponse>`

func TestInvokeTranslatesTwoLetterMarketplaceIntoQueryParams(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(listMatchingProductsOK)}}
	gw, fc := newTestGateway(t, fc)

	result, err := gw.Invoke(context.Background(), "products.ListMatchingProducts", nil, map[string]any{
		"marketplace_id": "US",
		"Query":          "widget",
	})
	require.NoError(t, err)

	records, ok := result.([]map[string]any)
	require.True(t, ok)
	require.Len(t, records, 1)
	require.Equal(t, "B000TEST", records[0]["sku"])
	require.Equal(t, "Acme", records[0]["brand"])
	require.Contains(t, fc.lastURL, "MarketplaceId=ATVPDKIKX0DER")
	require.Equal(t, "POST", fc.lastMeth)
}

func TestInvokeStripsPriorityFromSignedParamsAndCacheKey(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(serviceStatusOK)}}
	gw, fc := newTestGateway(t, fc)

	_, err := gw.Invoke(context.Background(), "products.GetServiceStatus", nil, map[string]any{"priority": 2})
	require.NoError(t, err)
	require.NotContains(t, fc.lastURL, "priority")

	// A second call with a different priority but otherwise identical
	// kwargs still hits the cache populated by the first.
	_, err = gw.Invoke(context.Background(), "products.GetServiceStatus", nil, map[string]any{"priority": 0})
	require.NoError(t, err)
	require.Equal(t, 1, fc.callCount)
}

const errorEnvelope = `<ErrorResponse><Error><Code>InvalidParameterValue</Code><Message>Bad ASIN</Message></Error><RequestID>R-1</RequestID></ErrorResponse>`

func TestInvokeReturnsAmazonErrorEnvelopeWithoutCaching(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(errorEnvelope), []byte(serviceStatusOK)}}
	gw, fc := newTestGateway(t, fc)

	// Invoke clamps priority 99 to the highest priority, 2, whose
	// GetServiceStatus quota_max is 2 — both real dispatches below admit
	// without waiting. Priority 0's override (quota_max 1) would force the second
	// call to block for most of a 300s restore_rate.
	result, err := gw.Invoke(context.Background(), "products.GetServiceStatus", nil, map[string]any{"priority": 99})
	require.NoError(t, err)

	envelope, ok := result.(map[string]any)
	require.True(t, ok)
	errBody, ok := envelope["error"].(map[string]string)
	require.True(t, ok)
	require.Equal(t, "InvalidParameterValue", errBody["code"])

	// Error responses are never cached: the next call dispatches again.
	result2, err := gw.Invoke(context.Background(), "products.GetServiceStatus", nil, map[string]any{"priority": 99})
	require.NoError(t, err)
	require.Equal(t, "GREEN", result2)
	require.Equal(t, 2, fc.callCount)
}

func TestInvokeReleasesThrottleSlotOnContextCancellation(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(serviceStatusOK)}}
	gw, _ := newTestGateway(t, fc)

	// Drive GetServiceStatus's quota_level up to its quota_max directly through
	// the throttler (Invoke would serve a second call from cache and
	// never touch it), then cancel the third Acquire's context. Priority
	// 99 is absent from PriorityQuotas, so the default quota_max of 2
	// applies rather than priority 0's override of 1.
	ctx := context.Background()
	h1, err := gw.throttler.Acquire(ctx, "GetServiceStatus", 99, 0)
	require.NoError(t, err)
	require.NoError(t, gw.throttler.Release(ctx, h1))

	h2, err := gw.throttler.Acquire(ctx, "GetServiceStatus", 99, 0)
	require.NoError(t, err)
	require.NoError(t, gw.throttler.Release(ctx, h2))

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	h3, err := gw.throttler.Acquire(cancelCtx, "GetServiceStatus", 99, 0)
	require.Error(t, err)
	require.NoError(t, gw.throttler.Release(context.Background(), h3), "release must succeed even on a cancelled acquire")
}

func TestInvokeRejectsUnknownAction(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(serviceStatusOK)}}
	gw, _ := newTestGateway(t, fc)

	_, err := gw.Invoke(context.Background(), "products.NotARealAction", nil, map[string]any{})
	require.Error(t, err)
	var gwErr *schemas.GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, schemas.ErrorClassConfiguration, gwErr.Class)
}

func TestInvokeFallsBackToUSForUnknownTwoLetterMarketplace(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(listMatchingProductsOK)}}
	gw, fc := newTestGateway(t, fc)

	_, err := gw.Invoke(context.Background(), "products.ListMatchingProducts", nil, map[string]any{
		"marketplace_id": "XX",
	})
	require.NoError(t, err)
	require.Contains(t, fc.lastURL, "MarketplaceId="+schemas.ResolveMarketplace("US"))
}

func TestInvokeDispatchesProductAdvertisingOverGET(t *testing.T) {
	fc := &fakeClient{bodies: [][]byte{[]byte(`<ItemSearchResponse><Items><Item><ASIN>B111</ASIN></Item></Items></ItemSearchResponse>`)}}
	gw, fc := newTestGateway(t, fc)
	gw.creds.AssociateTag = "assoc-20"

	result, err := gw.Invoke(context.Background(), "productadvertising.ItemSearch", nil, map[string]any{
		"Keywords": "widget",
	})
	require.NoError(t, err)
	require.Equal(t, "GET", fc.lastMeth)
	require.True(t, strings.Contains(fc.lastURL, "webservices.amazon.com"))

	record, ok := result.(map[string]any)
	require.True(t, ok)
	require.NotNil(t, record)
}
