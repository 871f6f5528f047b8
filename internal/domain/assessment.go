package domain

// TargetAudience is who the product is sold to.
type TargetAudience string

const (
	AudienceB2B       TargetAudience = "b2b"
	AudienceB2C       TargetAudience = "b2c"
	AudienceDeveloper TargetAudience = "developer"
	AudienceUnknown   TargetAudience = "unknown"
)

// ProductType is the coarse shape of the offering.
type ProductType string

const (
	ProductSaaS        ProductType = "saas"
	ProductLibrary     ProductType = "library"
	ProductFramework   ProductType = "framework"
	ProductGame        ProductType = "game"
	ProductTutorial    ProductType = "tutorial"
	ProductExamPrep    ProductType = "exam_prep"
	ProductStudentTool ProductType = "student_tool"
	ProductOther       ProductType = "other"
)

// BusinessCategory groups commercial products by function.
type BusinessCategory string

const (
	CategoryMarketing       BusinessCategory = "marketing"
	CategorySales           BusinessCategory = "sales"
	CategoryCustomerService BusinessCategory = "customer_service"
	CategoryProductivity    BusinessCategory = "productivity"
	CategoryDeveloper       BusinessCategory = "developer"
	CategoryOther           BusinessCategory = "other"
)

// AssessmentMethod records which tier produced a verdict.
type AssessmentMethod string

const (
	MethodRules    AssessmentMethod = "rules"
	MethodAI       AssessmentMethod = "ai"
	MethodFallback AssessmentMethod = "fallback"
)

// ViabilityAssessment is the gatekeeper's verdict for one candidate.
// RejectionReason is non-empty iff the candidate was rejected.
type ViabilityAssessment struct {
	IsCommercialSaaS bool
	TargetAudience   TargetAudience
	ProductType      ProductType
	BusinessCategory BusinessCategory
	Confidence       float64
	RejectionReason  string
	Method           AssessmentMethod
}

// Rejected reports whether the verdict carries a rejection.
func (a ViabilityAssessment) Rejected() bool {
	return a.RejectionReason != ""
}

// Assessed reports whether any tier actually produced this verdict, as
// opposed to the zero value passed through a gatekeeper-skipping path.
func (a ViabilityAssessment) Assessed() bool {
	return a.Method != ""
}
