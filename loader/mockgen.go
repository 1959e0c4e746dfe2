//go:build gomock || generate

package loader

//go:generate sh -c "go run go.uber.org/mock/mockgen -build_flags=\"-tags=gomock\" -package loader -destination mock_rate_source_test.go github.com/richinex/codedir/loader RateSource"
