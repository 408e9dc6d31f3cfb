package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
	"github.com/alfredjeanlab/prestataires/internal/server"
)

// GRPCClient implements VendorsClient using the gRPC transport. Messages use
// the server's JSON codec. Categories and regions are static and answered
// locally.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(server.CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{conn: conn, token: token}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return c.conn.Invoke(ctx, "/"+server.ServiceName+"/"+method, req, resp)
}

func (c *GRPCClient) FetchPage(ctx context.Context, q *query.Query, pageIndex, pageSize int) (*pager.Page, error) {
	req := &server.ListVendorsRequest{Filter: q.Filter(), Page: pageIndex, PageSize: pageSize}
	var page pager.Page
	if err := c.invoke(ctx, "ListVendors", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *GRPCClient) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	var v model.Vendor
	if err := c.invoke(ctx, "GetVendor", &server.GetVendorRequest{ID: id}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *GRPCClient) ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error) {
	var resp server.ListPhotosResponse
	if err := c.invoke(ctx, "ListPhotos", &server.ListPhotosRequest{VendorID: vendorID}, &resp); err != nil {
		return nil, err
	}
	return resp.Photos, nil
}

func (c *GRPCClient) PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error) {
	var resp server.PrimaryPhotoResponse
	if err := c.invoke(ctx, "PrimaryPhoto", &server.PrimaryPhotoRequest{VendorID: vendorID}, &resp); err != nil {
		return nil, err
	}
	return resp.Photo, nil
}

func (c *GRPCClient) Categories(context.Context) ([]model.Category, error) {
	return model.PublicCategories(), nil
}

func (c *GRPCClient) Regions(context.Context) ([]model.Region, error) {
	return model.Regions(), nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	var resp server.HealthResponse
	if err := c.invoke(ctx, "Health", &server.HealthRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
