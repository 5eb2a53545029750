package nodes

// Graph node keys.
const (
	NodeInputConverter       = "InputConverter"
	NodeClassifierChatModel  = "ClassifierChatModel"
	NodeClassificationParser = "ClassificationParser"
	NodeClarify              = "Clarify"
	NodeExtractorAssembler   = "ExtractorAssembler"
	NodeExtractorChatModel   = "ExtractorChatModel"
	NodeEntityParser         = "EntityParser"
	NodeParseError           = "ParseError"
	NodeResolver             = "QueryResolver"
	NodeNoData               = "NoData"
	NodeResponseAssembler    = "ResponseAssembler"
	NodeResponseChatModel    = "ResponseChatModel"
	NodeFinalizer            = "Finalizer"
	NodePersist              = "Persist"
)

// Canned replies for turns that end before the response model runs.
const (
	UnrecognizedReply = "I'm not sure how to handle your request. Could you clarify?"
	ParseFailureReply = "Sorry, I couldn't work out the details of your request. Could you rephrase it with the order, product or customer you mean?"
	NoDataReply       = "Sorry, I couldn't find any records matching your request."
	FailureReply      = "An error occurred while processing your request. Please try again later."
)
