package serve

import (
	"testing"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/google/go-cmp/cmp"
)

func TestParseShards(t *testing.T) {
	tests := []struct {
		in      string
		want    []common.ServerShard
		wantErr bool
	}{
		{"100=memory", []common.ServerShard{{ShardID: 100, Type: common.ShardTypeMemory}}, false},
		{"1=memory, 2 = bolt", []common.ServerShard{
			{ShardID: 1, Type: common.ShardTypeMemory},
			{ShardID: 2, Type: common.ShardTypeBolt},
		}, false},
		{"1=dstore", nil, true},
		{"x=memory", nil, true},
		{"1", nil, true},
		{"1=memory=bolt", nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseShards(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseShards failed: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Shards mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
