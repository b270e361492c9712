package query

import "regexp"

// Stock intent labels
const (
	IntentRefundRequest    = "refund_request"
	IntentCancelService    = "cancel_service"
	IntentAccountRecovery  = "account_recovery"
	IntentBillingQuestion  = "billing_question"
	IntentShippingStatus   = "shipping_status"
	IntentTechnicalSupport = "technical_support"
	IntentProductInfo      = "product_info"
	IntentGreeting         = "greeting"
)

// Stock department labels
const (
	DepartmentSales    = "sales"
	DepartmentBilling  = "billing"
	DepartmentShipping = "shipping"
	DepartmentSupport  = "support"
)

// DefaultIntentRules returns the stock intent rule list. Order matters:
// the first matching rule wins, so the narrow money and account rules sit
// above the broad catch-alls.
func DefaultIntentRules() []Rule {
	return []Rule{
		{IntentRefundRequest, regexp.MustCompile(`\b(refund|money back|chargeback|return my (order|money))\b`)},
		{IntentCancelService, regexp.MustCompile(`\b(cancel|terminate|unsubscribe)\b`)},
		{IntentAccountRecovery, regexp.MustCompile(`\b(reset|forgot|recover|locked out)\b|\bcan.?t (log ?in|sign ?in)\b`)},
		{IntentBillingQuestion, regexp.MustCompile(`\b(invoice|billing|payment|charged?|subscription|plan)\b`)},
		{IntentShippingStatus, regexp.MustCompile(`\b(track(ing)?|ship(ping|ment)?|deliver(y|ed)?|order status|where is my order)\b`)},
		{IntentTechnicalSupport, regexp.MustCompile(`\b(error|bug|crash(ing|es|ed)?|not working|broken|fail(s|ed|ing)?|troubleshoot)\b`)},
		{IntentProductInfo, regexp.MustCompile(`\b(features?|specs?|specifications?|compatib(le|ility)|difference between)\b`)},
		{IntentGreeting, regexp.MustCompile(`^(hi|hello|hey)\b`)},
	}
}

// DefaultDepartmentRules returns the stock contact-routing rule list. The
// sales rule is deliberately first so ambiguous business inquiries route to
// a sales channel before the department-specific rules run.
func DefaultDepartmentRules() []Rule {
	return []Rule{
		{DepartmentSales, regexp.MustCompile(`\b(buy|purchase|quote|pricing|price|demo|trial|upgrade|enterprise|sales)\b`)},
		{DepartmentBilling, regexp.MustCompile(`\b(invoice|billing|refund|payment|charge)\b`)},
		{DepartmentShipping, regexp.MustCompile(`\b(ship(ping|ment)?|deliver(y|ed)?|track(ing)?|return)\b`)},
		{DepartmentSupport, regexp.MustCompile(`\b(help|support|issue|problem|error|broken)\b`)},
	}
}
