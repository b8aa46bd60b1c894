// Package api is the wire contract of the registry gRPC service: message
// types, the JSON codec and hand-written service descriptors for both
// sides of the connection.
package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "fheregistry.v1.MessageRegistry"

const (
	MethodPing                  = "Ping"
	MethodInfo                  = "Info"
	MethodEncrypt               = "Encrypt"
	MethodSubmit                = "Submit"
	MethodGetUserMessages       = "GetUserMessages"
	MethodGetUserMessageCount   = "GetUserMessageCount"
	MethodGetMessageMetadata    = "GetMessageMetadata"
	MethodGetEncryptedContent   = "GetEncryptedContent"
	MethodGetEncryptedTimestamp = "GetEncryptedTimestamp"
	MethodIsMessageOwner        = "IsMessageOwner"
	MethodGetTotalCount         = "GetTotalCount"
	MethodDecrypt               = "Decrypt"
	MethodWatchMessages         = "WatchMessages"
)

// FullMethod returns the "/service/method" path used by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type MessageRegistryServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Info(context.Context, *InfoRequest) (*InfoResponse, error)
	Encrypt(context.Context, *EncryptRequest) (*EncryptResponse, error)
	Submit(context.Context, *SubmitRequest) (*SubmitResponse, error)
	GetUserMessages(context.Context, *GetUserMessagesRequest) (*GetUserMessagesResponse, error)
	GetUserMessageCount(context.Context, *GetUserMessageCountRequest) (*CountResponse, error)
	GetMessageMetadata(context.Context, *MessageRequest) (*MetadataResponse, error)
	GetEncryptedContent(context.Context, *MessageRequest) (*HandleResponse, error)
	GetEncryptedTimestamp(context.Context, *MessageRequest) (*HandleResponse, error)
	IsMessageOwner(context.Context, *MessageRequest) (*OwnerResponse, error)
	GetTotalCount(context.Context, *GetTotalCountRequest) (*CountResponse, error)
	Decrypt(context.Context, *DecryptRequest) (*DecryptResponse, error)
	WatchMessages(*WatchRequest, grpc.ServerStreamingServer[MessageEvent]) error
}

func unary[Req, Resp any](method string, call func(MessageRegistryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MessageRegistryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MessageRegistryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessageRegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, MessageRegistryServer.Ping),
		unary(MethodInfo, MessageRegistryServer.Info),
		unary(MethodEncrypt, MessageRegistryServer.Encrypt),
		unary(MethodSubmit, MessageRegistryServer.Submit),
		unary(MethodGetUserMessages, MessageRegistryServer.GetUserMessages),
		unary(MethodGetUserMessageCount, MessageRegistryServer.GetUserMessageCount),
		unary(MethodGetMessageMetadata, MessageRegistryServer.GetMessageMetadata),
		unary(MethodGetEncryptedContent, MessageRegistryServer.GetEncryptedContent),
		unary(MethodGetEncryptedTimestamp, MessageRegistryServer.GetEncryptedTimestamp),
		unary(MethodIsMessageOwner, MessageRegistryServer.IsMessageOwner),
		unary(MethodGetTotalCount, MessageRegistryServer.GetTotalCount),
		unary(MethodDecrypt, MessageRegistryServer.Decrypt),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatchMessages,
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(WatchRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(MessageRegistryServer).WatchMessages(in, &grpc.GenericServerStream[WatchRequest, MessageEvent]{ServerStream: stream})
			},
		},
	},
	Metadata: "fheregistry/v1/registry",
}

func RegisterMessageRegistryServer(s grpc.ServiceRegistrar, srv MessageRegistryServer) {
	s.RegisterService(&serviceDesc, srv)
}

// MessageRegistryClient calls the service with the JSON codec.
type MessageRegistryClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageRegistryClient(cc grpc.ClientConnInterface) *MessageRegistryClient {
	return &MessageRegistryClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MessageRegistryClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingRequest, PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *MessageRegistryClient) Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	return invoke[InfoRequest, InfoResponse](ctx, c.cc, MethodInfo, in, opts)
}

func (c *MessageRegistryClient) Encrypt(ctx context.Context, in *EncryptRequest, opts ...grpc.CallOption) (*EncryptResponse, error) {
	return invoke[EncryptRequest, EncryptResponse](ctx, c.cc, MethodEncrypt, in, opts)
}

func (c *MessageRegistryClient) Submit(ctx context.Context, in *SubmitRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	return invoke[SubmitRequest, SubmitResponse](ctx, c.cc, MethodSubmit, in, opts)
}

func (c *MessageRegistryClient) GetUserMessages(ctx context.Context, in *GetUserMessagesRequest, opts ...grpc.CallOption) (*GetUserMessagesResponse, error) {
	return invoke[GetUserMessagesRequest, GetUserMessagesResponse](ctx, c.cc, MethodGetUserMessages, in, opts)
}

func (c *MessageRegistryClient) GetUserMessageCount(ctx context.Context, in *GetUserMessageCountRequest, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[GetUserMessageCountRequest, CountResponse](ctx, c.cc, MethodGetUserMessageCount, in, opts)
}

func (c *MessageRegistryClient) GetMessageMetadata(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*MetadataResponse, error) {
	return invoke[MessageRequest, MetadataResponse](ctx, c.cc, MethodGetMessageMetadata, in, opts)
}

func (c *MessageRegistryClient) GetEncryptedContent(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*HandleResponse, error) {
	return invoke[MessageRequest, HandleResponse](ctx, c.cc, MethodGetEncryptedContent, in, opts)
}

func (c *MessageRegistryClient) GetEncryptedTimestamp(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*HandleResponse, error) {
	return invoke[MessageRequest, HandleResponse](ctx, c.cc, MethodGetEncryptedTimestamp, in, opts)
}

func (c *MessageRegistryClient) IsMessageOwner(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*OwnerResponse, error) {
	return invoke[MessageRequest, OwnerResponse](ctx, c.cc, MethodIsMessageOwner, in, opts)
}

func (c *MessageRegistryClient) GetTotalCount(ctx context.Context, in *GetTotalCountRequest, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[GetTotalCountRequest, CountResponse](ctx, c.cc, MethodGetTotalCount, in, opts)
}

func (c *MessageRegistryClient) Decrypt(ctx context.Context, in *DecryptRequest, opts ...grpc.CallOption) (*DecryptResponse, error) {
	return invoke[DecryptRequest, DecryptResponse](ctx, c.cc, MethodDecrypt, in, opts)
}

func (c *MessageRegistryClient) WatchMessages(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MessageEvent], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], FullMethod(MethodWatchMessages), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchRequest, MessageEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
