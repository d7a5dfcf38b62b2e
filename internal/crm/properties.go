package crm

// Object type names in the remote store
const (
	ObjectTypeDeal     = "deals"
	ObjectTypeContact  = "contacts"
	ObjectTypeCompany  = "companies"
	ObjectTypeLineItem = "line_items"
)

// Standard deal properties
const (
	PropDealName  = "dealname"
	PropDealStage = "dealstage"
	PropPipeline  = "pipeline"
	PropAmount    = "amount"
	PropCloseDate = "closedate"
)

// Standard contact properties
const (
	PropFirstName = "firstname"
	PropLastName  = "lastname"
	PropEmail     = "email"
	PropPhone     = "phone"
)

// Standard company properties
const (
	PropCompanyName    = "name"
	PropCompanyState   = "state"
	PropCompanyCity    = "city"
	PropCompanyAddress = "address"
)

// Custom deal properties carrying the quote payload
const (
	PropClientName      = "mp_cliente_nombre"
	PropClientCompany   = "mp_cliente_empresa"
	PropClientEmail     = "mp_cliente_email"
	PropClientPhone     = "mp_cliente_telefono"
	PropPaymentTerms    = "mp_condiciones_pago"
	PropDeliveryTerms   = "mp_condiciones_entrega"
	PropValidityTerms   = "mp_condiciones_validez"
	PropTotalSubtotal   = "mp_total_subtotal"
	PropTotalTax        = "mp_total_iva"
	PropTotalFinal      = "mp_total_final"
	PropTotalAreaSqm    = "mp_metros_cuadrados_totales"
	PropItemsJSON       = "mp_items_json"
	PropHasPendingItems = "mp_tiene_items_a_cotizar"
	PropPdfURL          = "mp_pdf_presupuesto_url"
)

// Custom contact properties for the external chat integration
const (
	PropChatLink   = "mp_manychat_url"
	PropChatPageID = "mp_page_id"
	PropChatUserID = "mp_manychat_user_id"
)

// Custom line-item properties carrying per-item geometry
const (
	PropItemName     = "name"
	PropItemPrice    = "price"
	PropItemQuantity = "quantity"
	PropItemLengthMm = "mp_largo_mm"
	PropItemWidthMm  = "mp_ancho_mm"
	PropItemHeightMm = "mp_alto_mm"
	PropItemBoxStyle = "mp_tipo_caja"
	PropItemUnitArea = "mp_metros_cuadrados_item"
)

// AssociationTypeLineItemToDeal is the store-defined association type
// linking a line item to its deal.
const AssociationTypeLineItemToDeal = 20

// DealListProperties is the attribute set fetched for the open-deal listing
var DealListProperties = []string{
	PropDealName, PropDealStage, PropPipeline, PropAmount, PropCloseDate,
	PropClientName, PropClientCompany, PropClientEmail, PropClientPhone,
	PropPaymentTerms, PropDeliveryTerms, PropValidityTerms,
	PropTotalSubtotal, PropTotalTax, PropTotalFinal, PropTotalAreaSqm,
	PropItemsJSON, PropHasPendingItems, PropPdfURL,
}

// ContactIdentityProperties is the attribute set read from associated contacts
var ContactIdentityProperties = []string{
	PropFirstName, PropLastName, PropEmail, PropPhone, PropChatLink,
}
