package market

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "market.v1.MarketService"

const (
	MarketService_GetPlatform_FullMethodName            = "/market.v1.MarketService/GetPlatform"
	MarketService_UpdateRegisterPayment_FullMethodName  = "/market.v1.MarketService/UpdateRegisterPayment"
	MarketService_UpdatePlatformFeeRate_FullMethodName  = "/market.v1.MarketService/UpdatePlatformFeeRate"
	MarketService_Register_FullMethodName               = "/market.v1.MarketService/Register"
	MarketService_ListProducers_FullMethodName          = "/market.v1.MarketService/ListProducers"
	MarketService_IsProducer_FullMethodName             = "/market.v1.MarketService/IsProducer"
	MarketService_AddCategory_FullMethodName            = "/market.v1.MarketService/AddCategory"
	MarketService_ListProducerCategories_FullMethodName = "/market.v1.MarketService/ListProducerCategories"
	MarketService_FindCategory_FullMethodName           = "/market.v1.MarketService/FindCategory"
	MarketService_AddContent_FullMethodName             = "/market.v1.MarketService/AddContent"
	MarketService_GetContent_FullMethodName             = "/market.v1.MarketService/GetContent"
	MarketService_ActivateSession_FullMethodName        = "/market.v1.MarketService/ActivateSession"
	MarketService_GetSession_FullMethodName             = "/market.v1.MarketService/GetSession"
	MarketService_GetProducerBalance_FullMethodName     = "/market.v1.MarketService/GetProducerBalance"
	MarketService_GetPlatformBalance_FullMethodName     = "/market.v1.MarketService/GetPlatformBalance"
	MarketService_ClaimPlatformRoyalties_FullMethodName = "/market.v1.MarketService/ClaimPlatformRoyalties"
	MarketService_ClaimProducerRoyalties_FullMethodName = "/market.v1.MarketService/ClaimProducerRoyalties"
	MarketService_ListEvents_FullMethodName             = "/market.v1.MarketService/ListEvents"
	MarketService_VerifyJournal_FullMethodName          = "/market.v1.MarketService/VerifyJournal"
)

// MarketServiceServer is the server API for MarketService.
type MarketServiceServer interface {
	GetPlatform(context.Context, *GetPlatformRequest) (*GetPlatformResponse, error)
	UpdateRegisterPayment(context.Context, *UpdateRegisterPaymentRequest) (*UpdateRegisterPaymentResponse, error)
	UpdatePlatformFeeRate(context.Context, *UpdatePlatformFeeRateRequest) (*UpdatePlatformFeeRateResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	ListProducers(context.Context, *ListProducersRequest) (*ListProducersResponse, error)
	IsProducer(context.Context, *IsProducerRequest) (*IsProducerResponse, error)
	AddCategory(context.Context, *AddCategoryRequest) (*AddCategoryResponse, error)
	ListProducerCategories(context.Context, *ListProducerCategoriesRequest) (*ListProducerCategoriesResponse, error)
	FindCategory(context.Context, *FindCategoryRequest) (*FindCategoryResponse, error)
	AddContent(context.Context, *AddContentRequest) (*AddContentResponse, error)
	GetContent(context.Context, *GetContentRequest) (*GetContentResponse, error)
	ActivateSession(context.Context, *ActivateSessionRequest) (*ActivateSessionResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error)
	GetProducerBalance(context.Context, *GetProducerBalanceRequest) (*BalanceResponse, error)
	GetPlatformBalance(context.Context, *GetPlatformBalanceRequest) (*BalanceResponse, error)
	ClaimPlatformRoyalties(context.Context, *ClaimRoyaltiesRequest) (*ClaimRoyaltiesResponse, error)
	ClaimProducerRoyalties(context.Context, *ClaimRoyaltiesRequest) (*ClaimRoyaltiesResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	VerifyJournal(context.Context, *VerifyJournalRequest) (*VerifyJournalResponse, error)
}

// readMethods lists the RPCs that never append to the journal.
var readMethods = map[string]bool{
	MarketService_GetPlatform_FullMethodName:            true,
	MarketService_ListProducers_FullMethodName:          true,
	MarketService_IsProducer_FullMethodName:             true,
	MarketService_ListProducerCategories_FullMethodName: true,
	MarketService_FindCategory_FullMethodName:           true,
	MarketService_GetContent_FullMethodName:             true,
	MarketService_GetSession_FullMethodName:             true,
	MarketService_GetProducerBalance_FullMethodName:     true,
	MarketService_GetPlatformBalance_FullMethodName:     true,
	MarketService_ListEvents_FullMethodName:             true,
	MarketService_VerifyJournal_FullMethodName:          true,
}

// IsReadMethod reports whether fullMethod is a read-only MarketService RPC.
func IsReadMethod(fullMethod string) bool {
	return readMethods[fullMethod]
}

// RegisterMarketServiceServer registers srv on s.
func RegisterMarketServiceServer(s grpc.ServiceRegistrar, srv MarketServiceServer) {
	s.RegisterService(&MarketService_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[Req, Resp any](fullMethod string, call func(MarketServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MarketServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MarketServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func method[Req, Resp any](name, fullMethod string, call func(MarketServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{MethodName: name, Handler: unaryHandler(fullMethod, call)}
}

// MarketService_ServiceDesc is the grpc.ServiceDesc for MarketService.
var MarketService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("GetPlatform", MarketService_GetPlatform_FullMethodName, MarketServiceServer.GetPlatform),
		method("UpdateRegisterPayment", MarketService_UpdateRegisterPayment_FullMethodName, MarketServiceServer.UpdateRegisterPayment),
		method("UpdatePlatformFeeRate", MarketService_UpdatePlatformFeeRate_FullMethodName, MarketServiceServer.UpdatePlatformFeeRate),
		method("Register", MarketService_Register_FullMethodName, MarketServiceServer.Register),
		method("ListProducers", MarketService_ListProducers_FullMethodName, MarketServiceServer.ListProducers),
		method("IsProducer", MarketService_IsProducer_FullMethodName, MarketServiceServer.IsProducer),
		method("AddCategory", MarketService_AddCategory_FullMethodName, MarketServiceServer.AddCategory),
		method("ListProducerCategories", MarketService_ListProducerCategories_FullMethodName, MarketServiceServer.ListProducerCategories),
		method("FindCategory", MarketService_FindCategory_FullMethodName, MarketServiceServer.FindCategory),
		method("AddContent", MarketService_AddContent_FullMethodName, MarketServiceServer.AddContent),
		method("GetContent", MarketService_GetContent_FullMethodName, MarketServiceServer.GetContent),
		method("ActivateSession", MarketService_ActivateSession_FullMethodName, MarketServiceServer.ActivateSession),
		method("GetSession", MarketService_GetSession_FullMethodName, MarketServiceServer.GetSession),
		method("GetProducerBalance", MarketService_GetProducerBalance_FullMethodName, MarketServiceServer.GetProducerBalance),
		method("GetPlatformBalance", MarketService_GetPlatformBalance_FullMethodName, MarketServiceServer.GetPlatformBalance),
		method("ClaimPlatformRoyalties", MarketService_ClaimPlatformRoyalties_FullMethodName, MarketServiceServer.ClaimPlatformRoyalties),
		method("ClaimProducerRoyalties", MarketService_ClaimProducerRoyalties_FullMethodName, MarketServiceServer.ClaimProducerRoyalties),
		method("ListEvents", MarketService_ListEvents_FullMethodName, MarketServiceServer.ListEvents),
		method("VerifyJournal", MarketService_VerifyJournal_FullMethodName, MarketServiceServer.VerifyJournal),
	},
	Streams: []grpc.StreamDesc{},
}
