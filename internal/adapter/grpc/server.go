package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/moneyney/moneyney-backend/internal/domain"
	"github.com/moneyney/moneyney-backend/internal/usecase/portfolio"
	"github.com/moneyney/moneyney-backend/internal/usecase/statistics"
	"github.com/moneyney/moneyney-backend/internal/usecase/transfer"
)

// Server implements PortfolioServiceServer on top of the portfolio service.
// Bodies use the JSON field names of the stored documents; decimals travel
// as strings and times as RFC 3339 strings.
type Server struct {
	portfolio *portfolio.PortfolioService
}

var _ PortfolioServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server adapter
func NewServer(svc *portfolio.PortfolioService) *Server {
	return &Server{portfolio: svc}
}

type idRequest struct {
	ID string `json:"id"`
}

type updateHoldingRequest struct {
	ID           string           `json:"id"`
	Name         *string          `json:"name"`
	Tag          *string          `json:"tag"`
	Shares       *decimal.Decimal `json:"shares"`
	CostPrice    *decimal.Decimal `json:"costPrice"`
	CurrentPrice *decimal.Decimal `json:"currentPrice"`
	InitialPrice json.RawMessage  `json:"initialPrice"` // null clears it
}

type tradeRequest struct {
	HoldingID string                 `json:"fundId"`
	Kind      domain.TransactionKind `json:"type"`
	Shares    decimal.Decimal        `json:"shares"`
	Price     decimal.Decimal        `json:"price"`
}

type toggleRequest struct {
	TransactionID string `json:"transactionId"`
}

type priceRequest struct {
	HoldingID string          `json:"fundId"`
	Price     decimal.Decimal `json:"price"`
}

type batchPriceRequest struct {
	Updates []priceRequest `json:"updates"`
}

type contributionRequest struct {
	HoldingIDs []string `json:"fundIds"`
	SyncFirst  bool     `json:"syncFirst"`
}

type strategiesRequest struct {
	Strategies []struct {
		HoldingID string                  `json:"fundId"`
		Plan      domain.ContributionPlan `json:"investmentStrategy"`
	} `json:"strategies"`
}

type transactionsRequest struct {
	HoldingID string `json:"fundId"`
}

type documentRequest struct {
	Document string `json:"document"`
}

type summaryResponse struct {
	TotalValue      decimal.Decimal `json:"totalValue"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	TotalProfit     decimal.Decimal `json:"totalProfit"`
	TotalProfitRate decimal.Decimal `json:"totalProfitRate"`
	TodayProfit     decimal.Decimal `json:"todayProfit"`
	TodayProfitRate decimal.Decimal `json:"todayProfitRate"`
	FundCount       int             `json:"fundCount"`
}

type metricsResponse struct {
	HoldingID       string              `json:"fundId"`
	Value           decimal.Decimal     `json:"value"`
	Cost            decimal.Decimal     `json:"cost"`
	Profit          decimal.Decimal     `json:"profit"`
	ProfitRate      decimal.Decimal     `json:"profitRate"`
	PriceChangeRate decimal.NullDecimal `json:"priceChangeRate"`
	DailyChange     decimal.NullDecimal `json:"dailyChange"`
	DailyChangeRate decimal.NullDecimal `json:"dailyChangeRate"`
}

type snapshotResponse struct {
	TodayTotalValue     decimal.NullDecimal `json:"todayTotalValue"`
	YesterdayTotalValue decimal.NullDecimal `json:"yesterdayTotalValue"`
	LastUpdateDate      string              `json:"lastUpdateDate"`
}

// ListHoldings returns every holding
func (s *Server) ListHoldings(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	holdings, err := s.portfolio.Holdings(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"funds": holdings})
}

// GetHolding returns a single holding
func (s *Server) GetHolding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	h, err := s.portfolio.Holding(ctx, in.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"fund": h})
}

// AddHolding creates a holding from a fund document
func (s *Server) AddHolding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in domain.Holding
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	h, err := s.portfolio.AddHolding(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"fund": h})
}

// UpdateHolding edits the fields present in the request
func (s *Server) UpdateHolding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in updateHoldingRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	u := portfolio.HoldingUpdate{
		Name:         in.Name,
		Tag:          in.Tag,
		Shares:       in.Shares,
		CostPrice:    in.CostPrice,
		CurrentPrice: in.CurrentPrice,
	}
	if len(in.InitialPrice) > 0 {
		var initial decimal.NullDecimal
		if !bytes.Equal(bytes.TrimSpace(in.InitialPrice), []byte("null")) {
			if err := json.Unmarshal(in.InitialPrice, &initial); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "invalid initialPrice: %v", err)
			}
		}
		u.InitialPrice = &initial
	}

	h, err := s.portfolio.UpdateHolding(ctx, in.ID, u)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"fund": h})
}

// DeleteHolding removes a holding
func (s *Server) DeleteHolding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if err := s.portfolio.DeleteHolding(ctx, in.ID); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// ClearData removes every holding and transaction
func (s *Server) ClearData(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.portfolio.Clear(ctx); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// RecordTrade buys or sells shares of a holding
func (s *Server) RecordTrade(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in tradeRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	h, tx, err := s.portfolio.RecordTrade(ctx, in.HoldingID, in.Kind, in.Shares, in.Price)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"fund": h, "transaction": tx})
}

// ToggleRevert flips the reverted flag of a transaction
func (s *Server) ToggleRevert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in toggleRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	h, tx, err := s.portfolio.ToggleRevert(ctx, in.TransactionID)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"fund": h, "transaction": tx})
}

// UpdatePrice sets the current price of a holding
func (s *Server) UpdatePrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in priceRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	h, err := s.portfolio.UpdatePrice(ctx, in.HoldingID, in.Price)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"fund": h})
}

// BatchUpdatePrices sets the current price of several holdings at once
func (s *Server) BatchUpdatePrices(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in batchPriceRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	updates := make([]portfolio.PriceUpdate, 0, len(in.Updates))
	for _, u := range in.Updates {
		updates = append(updates, portfolio.PriceUpdate{HoldingID: u.HoldingID, Price: u.Price})
	}
	holdings, err := s.portfolio.BatchUpdatePrices(ctx, updates)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"funds": holdings})
}

// SyncAll refreshes every holding from the quote source
func (s *Server) SyncAll(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.portfolio.SyncAll(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"succeeded": res.Succeeded, "failed": res.Failed})
}

// ExecuteContributions runs the daily contributions of the given holdings
func (s *Server) ExecuteContributions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in contributionRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	txs, err := s.portfolio.ExecuteContributions(ctx, in.HoldingIDs, in.SyncFirst)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"transactions": txs})
}

// UpdateStrategies replaces the contribution plans of several holdings
func (s *Server) UpdateStrategies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in strategiesRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	updates := make([]portfolio.StrategyUpdate, 0, len(in.Strategies))
	for _, u := range in.Strategies {
		updates = append(updates, portfolio.StrategyUpdate{HoldingID: u.HoldingID, Plan: u.Plan})
	}
	if err := s.portfolio.UpdateStrategies(ctx, updates); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// ListTransactions returns the retained transactions, newest first
func (s *Server) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in transactionsRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	txs, err := s.portfolio.Transactions(ctx, in.HoldingID)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"transactions": txs})
}

// GetStatistics returns the portfolio summary, per-holding figures and
// the valuation snapshot
func (s *Server) GetStatistics(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ov, err := s.portfolio.Overview(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{
		"summary":  toSummaryResponse(ov.Summary),
		"funds":    toMetricsResponse(ov.Holdings),
		"snapshot": toSnapshotResponse(ov.Snapshot),
	})
}

// ExportData returns the export document as a JSON string
func (s *Server) ExportData(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	doc, err := s.portfolio.Export(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	var buf bytes.Buffer
	if err := transfer.Encode(&buf, doc); err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"document": buf.String()})
}

// ImportData replaces the lists present in an import document
func (s *Server) ImportData(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in documentRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	payload, err := transfer.Decode(strings.NewReader(in.Document))
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.portfolio.Import(ctx, payload); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

// ExportTransactionsCSV returns the retained transactions as CSV text
func (s *Server) ExportTransactionsCSV(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	txs, err := s.portfolio.Transactions(ctx, "")
	if err != nil {
		return nil, mapError(err)
	}
	var buf bytes.Buffer
	if err := transfer.WriteTransactionsCSV(&buf, txs); err != nil {
		return nil, mapError(err)
	}
	return encode(map[string]any{"csv": buf.String()})
}

func toSummaryResponse(s statistics.Summary) summaryResponse {
	return summaryResponse{
		TotalValue:      s.TotalValue,
		TotalCost:       s.TotalCost,
		TotalProfit:     s.TotalProfit,
		TotalProfitRate: s.TotalProfitRate,
		TodayProfit:     s.TodayProfit,
		TodayProfitRate: s.TodayProfitRate,
		FundCount:       s.FundCount,
	}
}

func toMetricsResponse(metrics []statistics.HoldingMetrics) []metricsResponse {
	out := make([]metricsResponse, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, metricsResponse{
			HoldingID:       m.HoldingID,
			Value:           m.Value,
			Cost:            m.Cost,
			Profit:          m.Profit,
			ProfitRate:      m.ProfitRate,
			PriceChangeRate: m.PriceChangeRate,
			DailyChange:     m.DailyChange,
			DailyChangeRate: m.DailyChangeRate,
		})
	}
	return out
}

func toSnapshotResponse(s domain.ValuationSnapshot) snapshotResponse {
	return snapshotResponse{
		TodayTotalValue:     s.TodayTotalValue,
		YesterdayTotalValue: s.YesterdayTotalValue,
		LastUpdateDate:      s.LastUpdateDate,
	}
}

// decode maps a request body onto a typed request through its JSON form
func decode(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

// encode maps a response value onto a Struct through its JSON form
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError translates domain errors to gRPC status codes
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && status.Code(err) != codes.Unknown {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidContribution),
		errors.Is(err, domain.ErrUnsupportedFrequency),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrInvalidHolding),
		errors.Is(err, domain.ErrInvalidTransaction),
		errors.Is(err, transfer.ErrInvalidDocument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrHoldingNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrHoldingExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrNegativeShares),
		errors.Is(err, domain.ErrTradingClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
