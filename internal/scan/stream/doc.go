// Package stream publishes point cloud increments over gRPC.
//
// The service is described by a hand-written grpc.ServiceDesc using the
// well-known protobuf types: a client sends google.protobuf.Empty to
// /laserscan.stream.v1.IncrementService/Subscribe and receives a stream of
// google.protobuf.BytesValue, each carrying one delta in the EncodeDelta
// format. Publisher is the consumer of the engine's increment queue and fans
// deltas out to every subscriber.
package stream
