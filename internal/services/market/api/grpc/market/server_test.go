package market

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/tollgate.space/internal/platform/errors"
	"github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/auth"
	grpcmeta "github.com/louisbranch/tollgate.space/internal/services/market/api/grpc/metadata"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/engine"
	domain "github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
	"github.com/louisbranch/tollgate.space/internal/services/market/payout"
	"github.com/louisbranch/tollgate.space/internal/services/market/storage/memory"
)

const unit = 1_000_000

var testStart = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func startServer(t *testing.T) (*Client, *testClock) {
	t.Helper()
	_, events, err := domain.NewRegistries()
	if err != nil {
		t.Fatalf("new registries: %v", err)
	}
	store := memory.New(events, nil)
	clock := &testClock{now: testStart}
	eng, err := engine.Open(context.Background(), engine.Options{
		Journal:    store,
		Transferer: payout.Func(func(context.Context, string, domain.Amount) error { return nil }),
		Now:        clock.Now,
	}, engine.PlatformSettings{
		Name:            "Tollgate",
		FeeRate:         500,
		RegisterPayment: 10 * unit,
		Owner:           "owner-1",
	})
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	srv, err := NewServer(eng)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	resolver := auth.NewPrincipalResolver(auth.TokenConfig{})
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcmeta.UnaryServerInterceptor(nil),
		resolver.UnaryServerInterceptor(),
	))
	RegisterMarketServiceServer(grpcServer, srv)
	go func() {
		_ = grpcServer.Serve(listener)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient(
		listener.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	)
	if err != nil {
		t.Fatalf("dial server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn), clock
}

func as(principal string) context.Context {
	return grpcmeta.OutgoingContext(context.Background(), principal, "")
}

func TestMarketServiceSessionFlow(t *testing.T) {
	client, clock := startServer(t)

	if _, err := client.Register(as("producer-1"), &RegisterRequest{Paid: 10 * unit, ContentType: "video"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := client.AddCategory(as("producer-1"), &AddCategoryRequest{Name: "lectures", Fee: unit, SessionDurationSeconds: 86400}); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := client.AddContent(as("producer-1"), &AddContentRequest{Category: "lectures", Locator: "ipfs://lecture-1"}); err != nil {
		t.Fatalf("add content: %v", err)
	}

	activated, err := client.ActivateSession(as("consumer-1"), &ActivateSessionRequest{Paid: unit, Producer: "producer-1", Category: "lectures"})
	if err != nil {
		t.Fatalf("activate session: %v", err)
	}
	if want := testStart.Add(24 * time.Hour); !activated.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", activated.ExpiresAt, want)
	}

	content, err := client.GetContent(as(""), &GetContentRequest{Consumer: "consumer-1", Producer: "producer-1", Category: "lectures"})
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if len(content.Content) != 1 || content.Content[0] != "ipfs://lecture-1" {
		t.Fatalf("content = %v", content.Content)
	}

	platformBalance, err := client.GetPlatformBalance(as(""), &GetPlatformBalanceRequest{})
	if err != nil {
		t.Fatalf("platform balance: %v", err)
	}
	if platformBalance.Amount != 10*unit+50_000 {
		t.Fatalf("platform balance = %d, want %d", platformBalance.Amount, 10*unit+50_000)
	}

	claimed, err := client.ClaimProducerRoyalties(as("producer-1"), &ClaimRoyaltiesRequest{Destination: "acct-1"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Amount != 950_000 {
		t.Fatalf("claimed = %d, want 950000", claimed.Amount)
	}

	clock.Set(testStart.Add(24 * time.Hour))
	session, err := client.GetSession(as(""), &GetSessionRequest{Consumer: "consumer-1", Producer: "producer-1", Category: "lectures"})
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Active || session.ExpiresAt == nil {
		t.Fatalf("session = %+v, want expired with expiry", session)
	}
	_, err = client.GetContent(as(""), &GetContentRequest{Consumer: "consumer-1", Producer: "producer-1", Category: "lectures"})
	if got := apperrors.ReasonFromStatus(err); got != apperrors.CodeInactiveSession {
		t.Fatalf("reason = %s, want %s", got, apperrors.CodeInactiveSession)
	}
	if got := status.Code(err); got != codes.FailedPrecondition {
		t.Fatalf("status code = %s, want %s", got, codes.FailedPrecondition)
	}
}

func TestMarketServiceErrors(t *testing.T) {
	client, _ := startServer(t)

	_, err := client.Register(as(""), &RegisterRequest{Paid: 10 * unit})
	if got := status.Code(err); got != codes.Unauthenticated {
		t.Fatalf("register without principal = %s, want %s", got, codes.Unauthenticated)
	}

	_, err = client.UpdatePlatformFeeRate(as("producer-1"), &UpdatePlatformFeeRateRequest{FeeRateBasePoints: 100})
	if got := apperrors.ReasonFromStatus(err); got != apperrors.CodeUnauthorized {
		t.Fatalf("reason = %s, want %s", got, apperrors.CodeUnauthorized)
	}

	_, err = client.Register(as("producer-1"), &RegisterRequest{Paid: unit})
	if got := apperrors.ReasonFromStatus(err); got != apperrors.CodeIncorrectPayment {
		t.Fatalf("reason = %s, want %s", got, apperrors.CodeIncorrectPayment)
	}

	_, err = client.FindCategory(as(""), &FindCategoryRequest{Producer: "producer-1", Name: "lectures"})
	if got := status.Code(err); got != codes.NotFound {
		t.Fatalf("find category = %s, want %s", got, codes.NotFound)
	}

	_, err = client.AddCategory(as("producer-1"), &AddCategoryRequest{Name: "forever", Fee: unit, SessionDurationSeconds: domain.MaxSessionDurationSeconds + 1})
	if got := apperrors.ReasonFromStatus(err); got != apperrors.CodeInvalidConfiguration {
		t.Fatalf("reason = %s, want %s", got, apperrors.CodeInvalidConfiguration)
	}

	_, err = client.ListEvents(as(""), &ListEventsRequest{PageToken: "%%%"})
	if got := status.Code(err); got != codes.InvalidArgument {
		t.Fatalf("list events bad token = %s, want %s", got, codes.InvalidArgument)
	}
}

func TestMarketServiceListEventsPaging(t *testing.T) {
	client, _ := startServer(t)
	for _, producer := range []string{"p-1", "p-2", "p-3"} {
		if _, err := client.Register(as(producer), &RegisterRequest{Paid: 10 * unit}); err != nil {
			t.Fatalf("register %s: %v", producer, err)
		}
	}

	filter := `type = "producer.registered"`
	first, err := client.ListEvents(as(""), &ListEventsRequest{PageSize: 2, Filter: filter})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(first.Events) != 2 || first.TotalSize != 3 || first.NextPageToken == "" {
		t.Fatalf("first page = %+v", first)
	}
	second, err := client.ListEvents(as(""), &ListEventsRequest{PageSize: 2, Filter: filter, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("list events page 2: %v", err)
	}
	if len(second.Events) != 1 || second.Events[0].ActorID != "p-3" || second.NextPageToken != "" {
		t.Fatalf("second page = %+v", second)
	}

	verified, err := client.VerifyJournal(as(""), &VerifyJournalRequest{})
	if err != nil {
		t.Fatalf("verify journal: %v", err)
	}
	if verified.EventCount != 4 || verified.LastSeq != 4 {
		t.Fatalf("verify = %+v, want 4 events", verified)
	}

	producers, err := client.ListProducers(as(""), &ListProducersRequest{})
	if err != nil {
		t.Fatalf("list producers: %v", err)
	}
	if len(producers.Producers) != 3 || producers.Producers[0].Principal != "p-1" {
		t.Fatalf("producers = %+v", producers.Producers)
	}
	platform, err := client.GetPlatform(as(""), &GetPlatformRequest{})
	if err != nil {
		t.Fatalf("get platform: %v", err)
	}
	if platform.Platform.Owner != "owner-1" || platform.Platform.FeeRateBasePoints != 500 {
		t.Fatalf("platform = %+v", platform.Platform)
	}
}

func TestIsReadMethod(t *testing.T) {
	if !IsReadMethod(MarketService_GetContent_FullMethodName) {
		t.Fatal("expected GetContent to be a read")
	}
	if IsReadMethod(MarketService_ActivateSession_FullMethodName) {
		t.Fatal("expected ActivateSession to be a write")
	}
}
