package schema

import "fmt"

// Accounting number format applied to the derived money columns. The
// trailing section is reproduced byte-for-byte from the production
// reports; downstream consumers match on it.
const AccountingFormat = `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_`

// DueDateFormat is the display format for the derived due date column.
const DueDateFormat = "DD-MMM-YY"

// Date layouts accepted for sale and cheque dates, tried in order.
var salesDateLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006 03:04:05 PM",
	"02/01/2006",
}

// Process-wide schema singletons, read-only after init.
var (
	AgingImport             = New("aging-import", agingImportFields()...)
	AgingExport             = New("aging-export", agingExportFields()...)
	InventoryDropshipImport = New("inventory-dropship", inventoryDropshipFields()...)
	InventoryDealsImport    = New("inventory-deals", inventoryDealsFields()...)
	InventoryUOMImport      = New("inventory-uom",
		Field("Item", KindString),
		Field("UOM", KindDecimal),
	)
	InventoryDropshipExport = InventoryDropshipImport
	InventoryMixedExport    = New("inventory-mixed", inventoryMixedFields()...)
	InventoryWineExport     = New("inventory-wine", inventoryWineFields()...)
)

// Bank statement extracts carry exactly these columns, in this order.
var BankStatementColumns = []string{
	"TRAN_DATE",
	"ACCOUNT_NO",
	"ACCOUNT_NAME",
	"CCY",
	"CLOSING_BAL",
	"AMOUNT",
	"TRAN_CODE",
	"NARRATIVE",
	"SERIAL",
}

// BankStatementNumericColumns are coerced to decimal before export.
var BankStatementNumericColumns = []string{"TRAN_DATE", "AMOUNT", "CLOSING_BAL"}

func agingImportFields() []FieldSpec {
	fields := []FieldSpec{
		Field("Classification", KindString),
		Required("Sale_No", KindString),
		Field("Description", KindString),
		Required("Division", KindString),
		Field("BDM", KindString),
		DateField("Sale_Date", salesDateLayouts...),
		Required("Gross_Tot", KindFloat),
		Field("Delot_Ind", KindBoolean),
		DateField("Cheque_Date", salesDateLayouts...),
	}
	for day := 0; day <= 31; day++ {
		fields = append(fields, Field(fmt.Sprintf("Day%d", day), KindFloat))
	}
	return fields
}

func agingExportFields() []FieldSpec {
	fields := []FieldSpec{
		Field("Classification", KindString),
		Field("Sale_No", KindString),
		Field("Description", KindString),
		Field("Division", KindString),
		Field("BDM", KindString),
		DateField("Sale_Date", salesDateLayouts...),
		Field("Gross_Tot", KindFloat),
		Field("Delot_Ind", KindBoolean),
		DateField("Cheque_Date", salesDateLayouts...),
	}
	for day := 0; day <= 31; day++ {
		fields = append(fields, Field(fmt.Sprintf("Day%d", day), KindFloat))
	}
	fields = append(fields,
		Field("State", KindString),
		Field("State-Division Name", KindString),
		Field("Payment Days", KindInteger),
		DateField("Due Date").WithDisplay(DueDateFormat),
		Field("Division Name", KindString),
		Field("Sub Division Name", KindString),
		Field("Gross Amount", KindFloat).WithDisplay(AccountingFormat),
		Field("Collected", KindFloat).WithDisplay(AccountingFormat),
		Field("To be Collected", KindFloat).WithDisplay(AccountingFormat),
		Field("Payable to Vendor", KindFloat).WithDisplay(AccountingFormat),
		Field("Month", KindString),
		Field("Year", KindInteger),
		Field("Cheque Date Y/N", KindString),
		Field("Days Late for Vendors Pmt", KindInteger),
		Field("Comments", KindString),
	)
	return fields
}

func inventoryDropshipFields() []FieldSpec {
	return []FieldSpec{
		Field("Customer", KindString),
		Field("AX_ProductCode", KindString),
		Field("GST", KindString),
		Field("Units", KindInteger),
		Field("Price", KindDecimal),
		Field("Amount", KindDecimal),
		Field("SaleNo", KindString),
		Field("VendorNo", KindString),
		Field("ItemNo", KindString),
		Field("Description", KindString),
		Field("Serial_No", KindString),
		Field("Vendor_Ref_No", KindString),
		Field("DropShipper", KindString),
		Field("Consignment", KindString),
		Field("DealNo", KindString),
		Field("Column1", KindString),
		Field("BP", KindDecimal),
		Field("SaleType", KindString),
		Field("FreightCodeDescription", KindString),
	}
}

func inventoryDealsFields() []FieldSpec {
	fields := inventoryDropshipFields()
	// Deals extracts carry two extra division columns before the freight
	// description.
	last := fields[len(fields)-1]
	fields = append(fields[:len(fields)-1],
		Field("DivisionCode", KindString),
		Field("DivisionDescription", KindString),
		last,
	)
	return fields
}

func inventoryMixedFields() []FieldSpec {
	return []FieldSpec{
		Field("Customer", KindString),
		Field("AX_ProductCode", KindString),
		Field("Per_Unit_Cost", KindDecimal),
		Field("Units", KindInteger),
		Field("Price", KindDecimal),
		Field("Amount", KindDecimal),
		Field("SaleNo", KindString),
		Field("VendorNo", KindString),
		Field("ItemNo", KindString),
		Field("Description", KindString),
		Field("Serial_No", KindString),
		Field("COGS", KindDecimal),
		Field("SALE_EX_GST", KindDecimal),
		Field("BP_EX_GST", KindDecimal),
		Field("Vendor_Ref_No", KindString),
		Field("DropShipper", KindString),
		Field("Consignment", KindString),
		Field("DealNo", KindString),
		Field("Column1", KindString),
		Field("BP", KindDecimal),
		Field("SaleType", KindString),
		Field("FreightCodeDescription", KindString),
	}
}

func inventoryWineFields() []FieldSpec {
	fields := inventoryMixedFields()
	last := fields[len(fields)-1]
	fields = append(fields[:len(fields)-1],
		Field("DivisionCode", KindString),
		Field("DivisionDescription", KindString),
		last,
	)
	return fields
}
