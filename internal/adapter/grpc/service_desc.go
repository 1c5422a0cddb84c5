package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the portfolio service
const ServiceName = "moneyney.v1.PortfolioService"

// Every request and response body is a google.protobuf.Struct
const (
	MethodListHoldings          = "ListHoldings"
	MethodGetHolding            = "GetHolding"
	MethodAddHolding            = "AddHolding"
	MethodUpdateHolding         = "UpdateHolding"
	MethodDeleteHolding         = "DeleteHolding"
	MethodClearData             = "ClearData"
	MethodRecordTrade           = "RecordTrade"
	MethodToggleRevert          = "ToggleRevert"
	MethodUpdatePrice           = "UpdatePrice"
	MethodBatchUpdatePrices     = "BatchUpdatePrices"
	MethodSyncAll               = "SyncAll"
	MethodExecuteContributions  = "ExecuteContributions"
	MethodUpdateStrategies      = "UpdateStrategies"
	MethodListTransactions      = "ListTransactions"
	MethodGetStatistics         = "GetStatistics"
	MethodExportData            = "ExportData"
	MethodImportData            = "ImportData"
	MethodExportTransactionsCSV = "ExportTransactionsCSV"
)

// PortfolioServiceServer is the server API for the portfolio service
type PortfolioServiceServer interface {
	ListHoldings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetHolding(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddHolding(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateHolding(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteHolding(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearData(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordTrade(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleRevert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BatchUpdatePrices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExecuteContributions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateStrategies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStatistics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportData(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportData(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportTransactionsCSV(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PortfolioServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PortfolioServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PortfolioServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// PortfolioServiceDesc describes the portfolio service for grpc.Server.RegisterService
var PortfolioServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodListHoldings, PortfolioServiceServer.ListHoldings),
		unary(MethodGetHolding, PortfolioServiceServer.GetHolding),
		unary(MethodAddHolding, PortfolioServiceServer.AddHolding),
		unary(MethodUpdateHolding, PortfolioServiceServer.UpdateHolding),
		unary(MethodDeleteHolding, PortfolioServiceServer.DeleteHolding),
		unary(MethodClearData, PortfolioServiceServer.ClearData),
		unary(MethodRecordTrade, PortfolioServiceServer.RecordTrade),
		unary(MethodToggleRevert, PortfolioServiceServer.ToggleRevert),
		unary(MethodUpdatePrice, PortfolioServiceServer.UpdatePrice),
		unary(MethodBatchUpdatePrices, PortfolioServiceServer.BatchUpdatePrices),
		unary(MethodSyncAll, PortfolioServiceServer.SyncAll),
		unary(MethodExecuteContributions, PortfolioServiceServer.ExecuteContributions),
		unary(MethodUpdateStrategies, PortfolioServiceServer.UpdateStrategies),
		unary(MethodListTransactions, PortfolioServiceServer.ListTransactions),
		unary(MethodGetStatistics, PortfolioServiceServer.GetStatistics),
		unary(MethodExportData, PortfolioServiceServer.ExportData),
		unary(MethodImportData, PortfolioServiceServer.ImportData),
		unary(MethodExportTransactionsCSV, PortfolioServiceServer.ExportTransactionsCSV),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "moneyney/v1/portfolio.proto",
}

// RegisterPortfolioServiceServer registers the service implementation
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&PortfolioServiceDesc, srv)
}

// FullMethod returns the method path used on the wire
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Client calls the portfolio service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a new Client over a connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes a method with a request body built from fields
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
