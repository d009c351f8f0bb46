package api

import (
	"context"

	"jetcharter/internal/catalog"
	"jetcharter/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AirportLookup is served over the protobuf well-known types so that no
// generated code is needed; the service descriptor below is written by hand.
const (
	airportLookupServiceName    = "jetcharter.catalog.v1.AirportLookup"
	airportLookupSuggestMethod  = "/" + airportLookupServiceName + "/Suggest"
	airportLookupValidateMethod = "/" + airportLookupServiceName + "/Validate"
)

// AirportLookupServer autocompletes and validates airport input.
type AirportLookupServer interface {
	// Suggest returns up to five matching airports as structs.
	Suggest(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	// Validate reports whether the input names an airport exactly.
	Validate(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

var AirportLookupServiceDesc = grpc.ServiceDesc{
	ServiceName: airportLookupServiceName,
	HandlerType: (*AirportLookupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Suggest", Handler: airportLookupSuggestHandler},
		{MethodName: "Validate", Handler: airportLookupValidateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jetcharter/catalog/v1/airport_lookup.proto",
}

func RegisterAirportLookupServer(s grpc.ServiceRegistrar, srv AirportLookupServer) {
	s.RegisterService(&AirportLookupServiceDesc, srv)
}

func airportLookupSuggestHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AirportLookupServer).Suggest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: airportLookupSuggestMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AirportLookupServer).Suggest(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func airportLookupValidateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AirportLookupServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: airportLookupValidateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AirportLookupServer).Validate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// airportLookupService answers from the static airport table.
type airportLookupService struct{}

func NewAirportLookupService() AirportLookupServer {
	return airportLookupService{}
}

func (airportLookupService) Suggest(_ context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
	matches := catalog.Suggestions(in.GetValue())
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(matches))}
	for _, a := range matches {
		s, err := structpb.NewStruct(airportFields(a))
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, structpb.NewStructValue(s))
	}
	return out, nil
}

func (airportLookupService) Validate(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(catalog.IsValid(in.GetValue())), nil
}

func airportFields(a models.Airport) map[string]any {
	return map[string]any{
		"code":    a.Code,
		"name":    a.Name,
		"city":    a.City,
		"country": a.Country,
		"label":   catalog.Format(a),
	}
}

// AirportLookupClient calls the service over an existing connection.
type AirportLookupClient struct {
	cc grpc.ClientConnInterface
}

func NewAirportLookupClient(cc grpc.ClientConnInterface) *AirportLookupClient {
	return &AirportLookupClient{cc: cc}
}

func (c *AirportLookupClient) Suggest(ctx context.Context, query string, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, airportLookupSuggestMethod, wrapperspb.String(query), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AirportLookupClient) Validate(ctx context.Context, input string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, airportLookupValidateMethod, wrapperspb.String(input), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
