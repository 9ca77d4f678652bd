package code

// Return codes for the application.
// NOTE: Code 0 is always OK; the rest are application specific.
const (
	CodeTypeOK              uint32 = 0
	CodeTypeEncodingError   uint32 = 1
	CodeTypeInvalidTx       uint32 = 2
	CodeTypeUnknownCoin     uint32 = 3
	CodeTypeUnauthorized    uint32 = 4
	CodeTypePredicateReject uint32 = 5
	CodeTypeConservation    uint32 = 6
	CodeTypeDuplicate       uint32 = 7
	CodeTypeUnknownAsset    uint32 = 8
	CodeTypeQueryError      uint32 = 9
	CodeTypeUnknownError    uint32 = 10
)
