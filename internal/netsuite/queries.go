package netsuite

// ObjectType describes one kind of NetSuite record that is indexed
type ObjectType struct {
	// Name is the NetSuite record type, also used as the Glean object type
	Name string

	// Label is the human readable plural
	Label string

	// Permission is the role permission that grants access to the record type
	Permission string

	// Query selects the records. Column aliases must include internalid and every key in Keys.
	Query string

	// Keys are the columns exported as custom properties; the first is the title
	Keys []string

	// AllUsers grants every employee with access instead of subsidiary-scoped users
	AllUsers bool
}

// ViewPath is the path of the record page under /app/
func (o ObjectType) ViewPath() string {
	switch o.Name {
	case "item":
		return "common/item/item.nl"
	case "vendor":
		return "common/entity/vendor.nl"
	case "custjob":
		return "common/entity/custjob.nl"
	default:
		return "accounting/transactions/" + o.Name + ".nl"
	}
}

const employeeQuery = "SELECT BUILTIN_RESULT.TYPE_INTEGER(employee.ID) AS ID, " +
	"BUILTIN_RESULT.TYPE_STRING(employee.entityid) AS entityid, " +
	"BUILTIN_RESULT.TYPE_STRING(employee.email) AS email, " +
	"BUILTIN_RESULT.TYPE_BOOLEAN(employee.giveaccess) AS giveaccess " +
	"FROM employee WHERE employee.giveaccess = 'T'"

const rolePermissionsQuery = "SELECT e.id AS employee_id, e.firstname, e.lastname, e.email, e.entityid, " +
	"r.subsidiaryrestriction AS role_subsidiary_restriction, rp.name AS permission_name, rp.permLevel AS permission_level " +
	"FROM employee e JOIN employeeRolesForSearch erfs ON e.id = erfs.entity " +
	"JOIN role r ON erfs.role = r.id JOIN rolePermissions rp ON r.id = rp.role " +
	"WHERE e.giveaccess = 'T' AND e.isinactive = 'F' " +
	"AND rp.name IN ('Bills', 'Customers', 'Estimate', 'Invoice', 'Items', 'Opportunity', 'Purchase Order', 'Sales Order', 'Vendors') " +
	"AND rp.permLevel IS NOT NULL ORDER BY rp.name, e.lastname"

// ObjectTypes is the fixed set of record types fetched for indexing
var ObjectTypes = []ObjectType{
	{
		Name:       "custinvc",
		Label:      "invoices",
		Permission: "Invoice",
		Keys:       []string{"invoicenumber", "duedate", "netsuitecustomer", "unpaidamount", "ponumber", "internalid"},
		Query: "SELECT t.id AS internalid, t.tranid AS InvoiceNumber, t.otherrefnum AS PONumber, t.DueDate, t.status, " +
			"CASE t.status WHEN 'A' THEN 'Pending Approval' WHEN 'B' THEN 'Open' WHEN 'C' THEN 'Paid In Full' ELSE 'Other' END AS status_name, " +
			"t.entity AS customer_internal_id, customer.entityid AS customer_id, customer.altname AS netsuitecustomer, " +
			"SUM(ABS(transactionLine.netamount)) AS UnPaidAmount, subsidiary.id AS subsidiary, subsidiary.name AS subsidiary_name, " +
			"t.type AS transaction_type, so.transactionnumber AS sales_order_number " +
			"FROM transaction t LEFT JOIN transactionLine ON transactionLine.transaction = t.id " +
			"LEFT JOIN customer ON customer.id = t.entity LEFT JOIN subsidiary ON subsidiary.id = transactionLine.subsidiary " +
			"LEFT JOIN transaction so ON so.id = transactionLine.createdfrom " +
			"WHERE t.type = 'CustInvc' AND transactionLine.mainline = 'F' " +
			"GROUP BY t.id, t.tranid, t.otherrefnum, t.duedate, t.status, t.entity, customer.entityid, customer.altname, " +
			"subsidiary.id, subsidiary.name, t.type, so.transactionnumber",
	},
	{
		Name:       "vendorbill",
		Label:      "bills",
		Permission: "Bills",
		Keys:       []string{"vendorinvoicenumber", "vendor", "billamount", "nsponumber", "billduedate", "vendorbillstatus"},
		Query: "SELECT vb.id AS internalid, vb.tranid AS vendorinvoicenumber, vb.transactionnumber AS VendorBillNumber, " +
			"vb.duedate AS billduedate, vb.status, " +
			"CASE vb.status WHEN 'B' THEN 'Open' WHEN 'C' THEN 'Paid In Full' WHEN 'A' THEN 'Pending Approval' ELSE 'Other' END AS vendorbillstatus, " +
			"vb.entity AS vendor_internal_id, vendor.entityid AS vendor_id, vendor.altname AS vendor, " +
			"SUM(ABS(vbl.netamount)) AS billamount, subsidiary.id AS subsidiary, subsidiary.name AS subsidiary_name, " +
			"currency.name AS currency_name, vb.type AS transaction_type, po.transactionnumber AS nsponumber " +
			"FROM transaction vb LEFT JOIN transactionline vbl ON vbl.transaction = vb.id " +
			"LEFT JOIN vendor ON vendor.id = vb.entity LEFT JOIN subsidiary ON subsidiary.id = vbl.subsidiary " +
			"LEFT JOIN transaction po ON po.id = vbl.createdfrom LEFT JOIN currency ON currency.id = vb.currency " +
			"WHERE vb.type = 'VendBill' AND vbl.mainline = 'F' " +
			"GROUP BY vb.id, vb.tranid, vb.transactionnumber, vb.duedate, vb.status, vb.entity, vendor.entityid, vendor.altname, " +
			"subsidiary.id, subsidiary.name, currency.name, vb.type, po.transactionnumber",
	},
	{
		Name:       "purchord",
		Label:      "purchase orders",
		Permission: "Purchase Order",
		Keys:       []string{"nsponumberpo", "nspovendorpo", "nspoamountpo", "nspostatus"},
		Query: "SELECT t.id AS internalid, t.tranid AS nsponumberpo, e.entityid AS vendor_name, ABS(t.foreigntotal) AS nspoamountpo, " +
			"t.shipdate AS eta, t.status AS status_code, " +
			"CASE t.status WHEN 'A' THEN 'Pending Supervisor Approval' WHEN 'B' THEN 'Pending Receipt' " +
			"WHEN 'C' THEN 'Rejected by Supervisor' WHEN 'D' THEN 'Partially Received' " +
			"WHEN 'E' THEN 'Pending Billing/Partially Received' WHEN 'F' THEN 'Pending Bill' " +
			"WHEN 'G' THEN 'Fully Billed' WHEN 'H' THEN 'Closed' ELSE 'Unknown' END AS nspostatus, " +
			"c.symbol AS currency, vendor.altname AS nspovendorpo, pol.subsidiary AS subsidiary " +
			"FROM transaction t LEFT JOIN entity e ON t.entity = e.id LEFT JOIN currency c ON t.currency = c.id " +
			"LEFT JOIN vendor ON vendor.id = t.entity LEFT JOIN transactionline pol ON pol.transaction = t.id " +
			"WHERE t.type = 'PurchOrd' ORDER BY t.trandate DESC",
	},
	{
		Name:       "opprtnty",
		Label:      "opportunities",
		Permission: "Opportunity",
		Keys: []string{
			"nsopportunitynumber", "nsoptitle", "nsopcustomer", "nsopexpectedamount",
			"nsopstatus", "nsopsalesrep", "nsopexpectedclosedate",
		},
		Query: "SELECT t.id AS internalid, t.tranid AS nsopportunitynumber, t.title AS nsoptitle, c.entityid AS customer_name, " +
			"t.projectedtotal AS nsopexpectedamount, customer.altname AS nsopcustomer, tl.subsidiary AS subsidiary, " +
			"CASE t.status WHEN 'A' THEN 'In Progress' WHEN 'B' THEN 'Issued Estimate' WHEN 'C' THEN 'Closed - Won' " +
			"WHEN 'D' THEN 'Closed - Lost' ELSE 'Unknown' END AS nsopstatus, t.duedate AS nsopexpectedclosedate " +
			"FROM transaction t LEFT JOIN entity c ON t.entity = c.id LEFT JOIN customer ON customer.id = t.entity " +
			"LEFT JOIN transactionLine tl ON tl.transaction = t.id " +
			"WHERE t.type = 'Opprtnty' AND tl.mainline = 'T' ORDER BY t.trandate DESC",
	},
	{
		Name:       "estimate",
		Label:      "estimates",
		Permission: "Estimate",
		Keys:       []string{"nsqoutenumber", "nsquotecustomer", "nsquotesalesrep", "nsquoteamount", "nsquotestatus"},
		Query: "SELECT TRANSACTION.entity AS entity_id, TRANSACTION.id AS internalid, Customer.altname AS nsquotecustomer, " +
			"TRANSACTION.foreigntotal AS nsquoteamount, TRANSACTION.tranid AS nsqoutenumber, " +
			"employee.firstname || ' ' || employee.lastname AS nsquotesalesrep, subsidiary.id AS subsidiary, " +
			"CASE TRANSACTION.status WHEN 'A' THEN 'Open' WHEN 'B' THEN 'Processed' WHEN 'C' THEN 'Closed' " +
			"WHEN 'V' THEN 'Voided' WHEN 'X' THEN 'Expired' ELSE 'Other' END AS nsquotestatus, " +
			"TRANSACTION.currency AS currency_id, TRANSACTION.tosubsidiary AS tosubsidiary_id " +
			"FROM TRANSACTION LEFT JOIN Customer ON TRANSACTION.entity = Customer.id " +
			"LEFT JOIN transactionline ebl ON ebl.transaction = TRANSACTION.id " +
			"LEFT JOIN subsidiary ON subsidiary.id = ebl.subsidiary LEFT JOIN employee ON employee.id = TRANSACTION.employee " +
			"WHERE TRANSACTION.TYPE IN ('Estimate') AND ebl.mainline = 'T'",
	},
	{
		Name:       "salesord",
		Label:      "sales orders",
		Permission: "Sales Order",
		Keys:       []string{"nssonumber", "nssodate", "nssoamount", "nssostatus"},
		Query: "SELECT t.id AS internalid, t.tranid AS nssonumber, e.entitytitle AS nssocustomer, t.trandate AS nssodate, " +
			"ABS(t.foreigntotal) AS nssoamount, tl.subsidiary AS subsidiary, " +
			"CASE t.status WHEN 'A' THEN 'Pending Approval' WHEN 'B' THEN 'Pending Fulfillment' WHEN 'C' THEN 'Partially Fulfilled' " +
			"WHEN 'D' THEN 'Pending Billing/Partially Fulfilled' WHEN 'E' THEN 'Pending Billing' WHEN 'F' THEN 'Billed' " +
			"WHEN 'G' THEN 'Closed' ELSE 'Unknown' END AS nssostatus " +
			"FROM transaction t LEFT JOIN transactionline tl ON tl.transaction = t.id AND tl.mainline = 'T' " +
			"LEFT JOIN entity e ON t.entity = e.id WHERE t.type = 'SalesOrd' ORDER BY t.trandate DESC",
	},
	{
		Name:       "item",
		Label:      "items",
		Permission: "Items",
		Keys:       []string{"nsitemname", "itemtype", "itemdesc"},
		AllUsers:   true,
		Query: "SELECT BUILTIN_RESULT.TYPE_INTEGER(item.ID) AS internalid, BUILTIN_RESULT.TYPE_STRING(item.itemid) AS nsitemname, " +
			"BUILTIN_RESULT.TYPE_STRING(item.itemtype) AS itemtype, BUILTIN_RESULT.TYPE_STRING(item.description) AS itemdesc " +
			"FROM item",
	},
	{
		Name:       "vendor",
		Label:      "vendors",
		Permission: "Vendors",
		Keys:       []string{"nsvendorname", "nsvendorbalance", "nsvendorunbillamt"},
		Query: "SELECT BUILTIN_RESULT.TYPE_INTEGER(Vendor.ID) AS internalid, " +
			"BUILTIN_RESULT.TYPE_STRING(NVL(Vendor.companyname, 'N/A')) AS nsvendorname, " +
			"BUILTIN_RESULT.TYPE_INTEGER(NVL(VendorSubsidiaryRelationship.subsidiary, -1)) AS subsidiary, " +
			"BUILTIN_RESULT.TYPE_STRING(NVL(currency.symbol, '') || ' ' || TO_CHAR(NVL(Vendor.balanceprimary, 0))) AS nsvendorbalance, " +
			"BUILTIN_RESULT.TYPE_STRING(NVL(currency.symbol, '') || ' ' || TO_CHAR(NVL(Vendor.unbilledordersprimary, 0))) AS nsvendorunbillamt, " +
			"BUILTIN_RESULT.TYPE_STRING(NVL(currency.symbol, 'N/A')) AS vendorcurrency " +
			"FROM Vendor LEFT JOIN VendorSubsidiaryRelationship ON Vendor.ID = VendorSubsidiaryRelationship.entity " +
			"LEFT JOIN currency ON Vendor.currency = currency.id",
	},
	{
		Name:       "custjob",
		Label:      "customers",
		Permission: "Customers",
		Keys:       []string{"nscustomername", "nscustomersubsidiary", "nscustomeroverdue"},
		Query: "SELECT BUILTIN_RESULT.TYPE_INTEGER(Customer.ID) AS internalid, " +
			"BUILTIN_RESULT.TYPE_INTEGER(CustomerSubsidiaryRelationship.subsidiary) AS subsidiary, " +
			"BUILTIN_RESULT.TYPE_STRING(Subsidiary.name) AS nscustomersubsidiary, " +
			"BUILTIN_RESULT.TYPE_STRING(Customer.entityid || ' - ' || Customer.companyname) AS nscustomername, " +
			"BUILTIN_RESULT.TYPE_STRING(COALESCE(currency.symbol, 'N/A') || ' ' || TO_CHAR(NVL(Customer.overduebalancesearch, 0))) AS nscustomeroverdue " +
			"FROM Customer LEFT JOIN CustomerSubsidiaryRelationship ON Customer.ID = CustomerSubsidiaryRelationship.entity " +
			"LEFT JOIN Subsidiary ON CustomerSubsidiaryRelationship.subsidiary = Subsidiary.ID " +
			"LEFT JOIN Currency ON Customer.currency = Currency.ID",
	},
}

// objectTypeForPermission maps a role permission name to its record type
func objectTypeForPermission(permission string) (string, bool) {
	for _, o := range ObjectTypes {
		if o.Permission == permission {
			return o.Name, true
		}
	}
	return "", false
}
