package errors

// CodePair는 HTTP 상태 코드와 gRPC 코드의 쌍입니다
type CodePair struct {
	HTTPStatus int
	GRPCCode   int
}

var codeMapping = map[string]CodePair{
	ErrInternal:           {500, 13}, // INTERNAL
	ErrNotFound:           {404, 5},  // NOT_FOUND
	ErrInvalidArgument:    {400, 3},  // INVALID_ARGUMENT
	ErrUnauthenticated:    {401, 16}, // UNAUTHENTICATED
	ErrUnauthorized:       {403, 7},  // PERMISSION_DENIED
	ErrConflict:           {409, 6},  // ALREADY_EXISTS
	ErrFailedPrecondition: {422, 9},  // FAILED_PRECONDITION
	ErrUnavailable:        {503, 14}, // UNAVAILABLE
	ErrTimeout:            {504, 4},  // DEADLINE_EXCEEDED
}

// GetCodeMapping은 에러 코드에 대응하는 HTTP 상태 코드와 gRPC 코드를 반환합니다
func GetCodeMapping(code string) (int, int) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return 500, 13
}
