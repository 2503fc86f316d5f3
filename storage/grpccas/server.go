package grpccas

import (
	"context"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/sealkit/aead"
	"xdao.co/sealkit/cidutil"
	"xdao.co/sealkit/storage"
)

// Server exposes a storage.CAS over the EnvelopeStore service.
type Server struct {
	UnimplementedEnvelopeStoreServer
	CAS storage.CAS

	// EnvelopesOnly rejects Put payloads that are not sealkit envelopes.
	EnvelopesOnly bool
}

func (s *Server) ready() error {
	if s == nil || s.CAS == nil {
		return status.Error(codes.FailedPrecondition, "missing CAS")
	}
	return nil
}

func decodeCID(in *wrapperspb.StringValue) (cid.Cid, error) {
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return id, nil
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	b := in.GetValue()
	expected, err := cidutil.Sum(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}

	var id cid.Cid
	if s.EnvelopesOnly {
		id, _, err = storage.PutEnvelope(ctx, s.CAS, b)
	} else {
		id, err = s.CAS.Put(ctx, b)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	if !id.Equals(expected) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := decodeCID(in)
	if err != nil {
		return nil, err
	}
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := cidutil.Verify(id, b); err != nil {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := decodeCID(in)
	if err != nil {
		return nil, err
	}
	ok, err := s.CAS.Has(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *Server) Inspect(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := decodeCID(in)
	if err != nil {
		return nil, err
	}
	_, info, err := storage.GetEnvelope(ctx, s.CAS, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return InfoStruct(info)
}

// InfoStruct renders envelope framing as a protobuf Struct.
func InfoStruct(info *aead.Info) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"option":   float64(info.Option),
		"layers":   float64(info.Layers),
		"version":  float64(info.Version),
		"agid":     float64(info.Algorithm),
		"mode":     info.Mode,
		"key_len":  float64(info.KeyLen),
		"iv_len":   float64(info.IVLen),
		"data_len": float64(info.DataLen),
		"size":     float64(info.Size),
	})
}
