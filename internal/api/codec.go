package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/letschat/internal/tree"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldPath     = "path"
	fieldValue    = "value"
	fieldExpected = "expected"
	fieldChildren = "children"
)

// EncodeValue normalizes a tree value and converts it to its wire form.
func EncodeValue(v any) (*structpb.Value, error) {
	n, err := tree.Normalize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tree.ErrInvalidPath, err)
	}
	pv, err := structpb.NewValue(n)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return pv, nil
}

// DecodeValue converts a wire value back to a tree value.
func DecodeValue(v *structpb.Value) any {
	if v == nil {
		return nil
	}
	return v.AsInterface()
}

// NewWriteRequest builds the request of Set and Push.
func NewWriteRequest(path string, value any) (*structpb.Struct, error) {
	pv, err := EncodeValue(value)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldPath:  structpb.NewStringValue(path),
		fieldValue: pv,
	}}, nil
}

// NewUpdateRequest builds the request of Update. Nil children are kept as
// nulls so the hub removes them.
func NewUpdateRequest(path string, children map[string]any) (*structpb.Struct, error) {
	fields := make(map[string]*structpb.Value, len(children))
	for rel, v := range children {
		pv, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rel, err)
		}
		fields[rel] = pv
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldPath:     structpb.NewStringValue(path),
		fieldChildren: structpb.NewStructValue(&structpb.Struct{Fields: fields}),
	}}, nil
}

// NewCASRequest builds the request of CompareAndSwap.
func NewCASRequest(path string, expected, next any) (*structpb.Struct, error) {
	ev, err := EncodeValue(expected)
	if err != nil {
		return nil, err
	}
	nv, err := EncodeValue(next)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldPath:     structpb.NewStringValue(path),
		fieldExpected: ev,
		fieldValue:    nv,
	}}, nil
}

type request struct {
	path     string
	value    any
	expected any
	children map[string]any
}

func decodeRequest(s *structpb.Struct) request {
	f := s.GetFields()
	r := request{
		path:     f[fieldPath].GetStringValue(),
		value:    DecodeValue(f[fieldValue]),
		expected: DecodeValue(f[fieldExpected]),
	}
	if children := f[fieldChildren].GetStructValue(); children != nil {
		r.children = make(map[string]any, len(children.GetFields()))
		for rel, v := range children.GetFields() {
			r.children[rel] = DecodeValue(v)
		}
	}
	return r
}

// toStatus maps store errors to gRPC status errors.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tree.ErrInvalidPath):
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.FromContextError(err).Err()
	default:
		return grpcstatus.Error(codes.Internal, err.Error())
	}
}
