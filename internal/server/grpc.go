package server

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "vendors.v1.VendorService"

// CodecName is the content subtype of the JSON codec used by the vendor
// service. Clients select it with grpc.CallContentSubtype(CodecName).
const CodecName = "json"

const methodHealth = "/" + ServiceName + "/Health"

// jsonCodec marshals gRPC messages as JSON.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Request and response messages of the vendor service.
type (
	ListVendorsRequest struct {
		Filter   model.VendorFilter `json:"filter"`
		Page     int                `json:"page"`
		PageSize int                `json:"page_size"`
	}
	GetVendorRequest struct {
		ID string `json:"id"`
	}
	ListPhotosRequest struct {
		VendorID string `json:"vendor_id"`
	}
	ListPhotosResponse struct {
		Photos []*model.Photo `json:"photos"`
	}
	PrimaryPhotoRequest struct {
		VendorID string `json:"vendor_id"`
	}
	PrimaryPhotoResponse struct {
		Photo *model.Photo `json:"photo"`
	}
	HealthRequest  struct{}
	HealthResponse struct {
		Status string `json:"status"`
	}
)

// VendorServiceServer is the read API served over gRPC.
type VendorServiceServer interface {
	ListVendors(context.Context, *ListVendorsRequest) (*pager.Page, error)
	GetVendor(context.Context, *GetVendorRequest) (*model.Vendor, error)
	ListPhotos(context.Context, *ListPhotosRequest) (*ListPhotosResponse, error)
	PrimaryPhoto(context.Context, *PrimaryPhotoRequest) (*PrimaryPhotoResponse, error)
	Health(context.Context, *HealthRequest) (*HealthResponse, error)
}

var _ VendorServiceServer = (*grpcService)(nil)

// grpcService adapts VendorServer to VendorServiceServer.
type grpcService struct {
	s *VendorServer
}

func (g *grpcService) ListVendors(ctx context.Context, req *ListVendorsRequest) (*pager.Page, error) {
	page, err := g.s.listVendors(ctx, req.Filter.Normalize(), req.Page, req.PageSize)
	return page, grpcError(err)
}

func (g *grpcService) GetVendor(ctx context.Context, req *GetVendorRequest) (*model.Vendor, error) {
	v, err := g.s.getVendor(ctx, req.ID)
	return v, grpcError(err)
}

func (g *grpcService) ListPhotos(ctx context.Context, req *ListPhotosRequest) (*ListPhotosResponse, error) {
	photos, err := g.s.listPhotos(ctx, req.VendorID)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListPhotosResponse{Photos: photos}, nil
}

func (g *grpcService) PrimaryPhoto(ctx context.Context, req *PrimaryPhotoRequest) (*PrimaryPhotoResponse, error) {
	p, err := g.s.primaryPhoto(ctx, req.VendorID)
	if err != nil {
		return nil, grpcError(err)
	}
	return &PrimaryPhotoResponse{Photo: p}, nil
}

func (g *grpcService) Health(ctx context.Context, _ *HealthRequest) (*HealthResponse, error) {
	if err := g.s.health(ctx); err != nil {
		return &HealthResponse{Status: "unavailable"}, nil
	}
	return &HealthResponse{Status: "ok"}, nil
}

// unary builds a method handler that decodes Req and dispatches through the
// interceptor chain.
func unary[Req, Resp any](method string, call func(VendorServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VendorServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(VendorServiceServer), ctx, req.(*Req))
			})
		},
	}
}

// VendorServiceDesc describes the vendor service for grpc.Server.RegisterService.
var VendorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VendorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListVendors", VendorServiceServer.ListVendors),
		unary("GetVendor", VendorServiceServer.GetVendor),
		unary("ListPhotos", VendorServiceServer.ListPhotos),
		unary("PrimaryPhoto", VendorServiceServer.PrimaryPhoto),
		unary("Health", VendorServiceServer.Health),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vendors/v1/vendors.proto",
}

// NewGRPCServer creates a gRPC server with standard interceptors,
// registers the VendorService, the health service and reflection, and
// returns the server ready to serve.
func NewGRPCServer(s *VendorServer) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			SessionInterceptor(s.verifier),
		),
	)

	srv.RegisterService(&VendorServiceDesc, &grpcService{s: s})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv
}
