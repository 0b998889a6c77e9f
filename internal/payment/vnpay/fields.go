package vnpay

// Wire field names fixed by the gateway protocol.
const (
	FieldVersion           = "vnp_Version"
	FieldCommand           = "vnp_Command"
	FieldTmnCode           = "vnp_TmnCode"
	FieldAmount            = "vnp_Amount"
	FieldBankCode          = "vnp_BankCode"
	FieldCreateDate        = "vnp_CreateDate"
	FieldExpireDate        = "vnp_ExpireDate"
	FieldCurrCode          = "vnp_CurrCode"
	FieldIPAddr            = "vnp_IpAddr"
	FieldLocale            = "vnp_Locale"
	FieldOrderInfo         = "vnp_OrderInfo"
	FieldOrderType         = "vnp_OrderType"
	FieldReturnURL         = "vnp_ReturnUrl"
	FieldTxnRef            = "vnp_TxnRef"
	FieldResponseCode      = "vnp_ResponseCode"
	FieldTransactionNo     = "vnp_TransactionNo"
	FieldTransactionStatus = "vnp_TransactionStatus"
	FieldPayDate           = "vnp_PayDate"

	CommandPay = "pay"
)
