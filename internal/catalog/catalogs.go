package catalog

import "github.com/rezonia/efactura-editor/internal/model"

// Catalogs bundles the two growable registries
type Catalogs struct {
	Units      *Registry
	Exemptions *Registry
}

// New returns freshly seeded registries
func New() *Catalogs {
	return &Catalogs{
		Units:      NewRegistry(UnitCodeSeed),
		Exemptions: NewRegistry(ExemptionSeed),
	}
}

// UnitCodeSeed is the fixed UN/ECE Rec. 20 subset offered before any import
var UnitCodeSeed = []Entry{
	{Code: "H87", Label: "Bucată"},
	{Code: "C62", Label: "Unitate"},
	{Code: "KGM", Label: "Kilogram"},
	{Code: "GRM", Label: "Gram"},
	{Code: "LTR", Label: "Litru"},
	{Code: "MTR", Label: "Metru"},
	{Code: "MTK", Label: "Metru pătrat"},
	{Code: "MTQ", Label: "Metru cub"},
	{Code: "KMT", Label: "Kilometru"},
	{Code: "HUR", Label: "Oră"},
	{Code: "DAY", Label: "Zi"},
	{Code: "MON", Label: "Lună"},
	{Code: "ANN", Label: "An"},
	{Code: "SET", Label: "Set"},
	{Code: "XPK", Label: "Pachet"},
	{Code: "KWH", Label: "Kilowatt-oră"},
}

// ExemptionSeed is the initial list of exemption pairs for category E
var ExemptionSeed = []Entry{
	{Code: "VATEX-EU-132", Label: "Scutire conform art. 132 din Directiva 2006/112/CE"},
	{Code: "VATEX-EU-143", Label: "Scutire conform art. 143 din Directiva 2006/112/CE"},
	{Code: "VATEX-EU-79-C", Label: "Excepție conform art. 79 lit. c din Directiva 2006/112/CE"},
}

var fixedExemptions = map[model.VATType]Entry{
	model.VATReverseCharge:  {Code: "VATEX-EU-AE", Label: "Taxare inversă"},
	model.VATNotRegistered:  {Code: "VATEX-EU-O", Label: "Neînregistrat în scopuri de TVA"},
	model.VATIntraCommunity: {Code: "VATEX-EU-IC", Label: "Livrare intracomunitară de bunuri"},
}

// FixedExemption returns the exemption pair bound to a category.
// Category E has no fixed pair; its codes come from the Exemptions registry.
func FixedExemption(t model.VATType) (Entry, bool) {
	e, ok := fixedExemptions[t]
	return e, ok
}

// VATTypeLabels describes each VAT category
var VATTypeLabels = []Entry{
	{Code: string(model.VATStandard), Label: "Standard"},
	{Code: string(model.VATReverseCharge), Label: "Taxare inversă"},
	{Code: string(model.VATNotRegistered), Label: "Neplătitor de TVA"},
	{Code: string(model.VATZeroRate), Label: "Cota zero"},
	{Code: string(model.VATExempt), Label: "Scutit"},
	{Code: string(model.VATIntraCommunity), Label: "Livrare intracomunitară"},
}

// ChargeReasons is the UNTDID 7161 subset used for charges
var ChargeReasons = []Entry{
	{Code: "AA", Label: "Publicitate"},
	{Code: "ABL", Label: "Ambalare suplimentară"},
	{Code: "ADR", Label: "Alte servicii"},
	{Code: "FC", Label: "Transport"},
	{Code: "FI", Label: "Cost financiar"},
	{Code: "LA", Label: "Etichetare"},
	{Code: "PC", Label: "Ambalare"},
	{Code: "SH", Label: "Manipulare specială"},
	{Code: "ZZZ", Label: "Definit de comun acord"},
}

// AllowanceReasons is the UNTDID 5189 subset used for allowances and line discounts
var AllowanceReasons = []Entry{
	{Code: "41", Label: "Bonus pentru lucrări anticipate"},
	{Code: "42", Label: "Alt bonus"},
	{Code: "60", Label: "Reducere volum producător"},
	{Code: "62", Label: "Datorită acordului militar"},
	{Code: "63", Label: "Datorită accidentului de muncă"},
	{Code: "64", Label: "Acord special"},
	{Code: "65", Label: "Reducere pentru defecte de producție"},
	{Code: "66", Label: "Reducere pentru articole noi"},
	{Code: "67", Label: "Reducere de sponsorizare"},
	{Code: "68", Label: "Reducere suplimentară"},
	{Code: "70", Label: "Reducere"},
	{Code: "71", Label: "Reducere pentru plata anticipată"},
	{Code: "88", Label: "Suprataxă/deducere materiale"},
	{Code: "95", Label: "Reducere"},
	{Code: "100", Label: "Reducere specială"},
	{Code: "102", Label: "Pe termen lung fix"},
	{Code: "103", Label: "Temporar"},
	{Code: "104", Label: "Standard"},
	{Code: "105", Label: "Cifră de afaceri anuală"},
}

// Countries is the ISO 3166-1 subset offered in party selectors
var Countries = []Entry{
	{Code: "RO", Label: "România"},
	{Code: "AT", Label: "Austria"},
	{Code: "BE", Label: "Belgia"},
	{Code: "BG", Label: "Bulgaria"},
	{Code: "CY", Label: "Cipru"},
	{Code: "CZ", Label: "Cehia"},
	{Code: "DE", Label: "Germania"},
	{Code: "DK", Label: "Danemarca"},
	{Code: "EE", Label: "Estonia"},
	{Code: "ES", Label: "Spania"},
	{Code: "FI", Label: "Finlanda"},
	{Code: "FR", Label: "Franța"},
	{Code: "GB", Label: "Regatul Unit"},
	{Code: "GR", Label: "Grecia"},
	{Code: "HR", Label: "Croația"},
	{Code: "HU", Label: "Ungaria"},
	{Code: "IE", Label: "Irlanda"},
	{Code: "IT", Label: "Italia"},
	{Code: "LT", Label: "Lituania"},
	{Code: "LU", Label: "Luxemburg"},
	{Code: "LV", Label: "Letonia"},
	{Code: "MD", Label: "Republica Moldova"},
	{Code: "MT", Label: "Malta"},
	{Code: "NL", Label: "Țările de Jos"},
	{Code: "PL", Label: "Polonia"},
	{Code: "PT", Label: "Portugalia"},
	{Code: "SE", Label: "Suedia"},
	{Code: "SI", Label: "Slovenia"},
	{Code: "SK", Label: "Slovacia"},
	{Code: "CH", Label: "Elveția"},
	{Code: "NO", Label: "Norvegia"},
	{Code: "UA", Label: "Ucraina"},
	{Code: "RS", Label: "Serbia"},
	{Code: "TR", Label: "Turcia"},
	{Code: "US", Label: "Statele Unite"},
	{Code: "CN", Label: "China"},
}

// Counties is the ISO 3166-2:RO list
var Counties = []Entry{
	{Code: "RO-AB", Label: "Alba"},
	{Code: "RO-AR", Label: "Arad"},
	{Code: "RO-AG", Label: "Argeș"},
	{Code: "RO-BC", Label: "Bacău"},
	{Code: "RO-BH", Label: "Bihor"},
	{Code: "RO-BN", Label: "Bistrița-Năsăud"},
	{Code: "RO-BT", Label: "Botoșani"},
	{Code: "RO-BR", Label: "Brăila"},
	{Code: "RO-BV", Label: "Brașov"},
	{Code: "RO-B", Label: "București"},
	{Code: "RO-BZ", Label: "Buzău"},
	{Code: "RO-CL", Label: "Călărași"},
	{Code: "RO-CS", Label: "Caraș-Severin"},
	{Code: "RO-CJ", Label: "Cluj"},
	{Code: "RO-CT", Label: "Constanța"},
	{Code: "RO-CV", Label: "Covasna"},
	{Code: "RO-DB", Label: "Dâmbovița"},
	{Code: "RO-DJ", Label: "Dolj"},
	{Code: "RO-GL", Label: "Galați"},
	{Code: "RO-GR", Label: "Giurgiu"},
	{Code: "RO-GJ", Label: "Gorj"},
	{Code: "RO-HR", Label: "Harghita"},
	{Code: "RO-HD", Label: "Hunedoara"},
	{Code: "RO-IL", Label: "Ialomița"},
	{Code: "RO-IS", Label: "Iași"},
	{Code: "RO-IF", Label: "Ilfov"},
	{Code: "RO-MM", Label: "Maramureș"},
	{Code: "RO-MH", Label: "Mehedinți"},
	{Code: "RO-MS", Label: "Mureș"},
	{Code: "RO-NT", Label: "Neamț"},
	{Code: "RO-OT", Label: "Olt"},
	{Code: "RO-PH", Label: "Prahova"},
	{Code: "RO-SJ", Label: "Sălaj"},
	{Code: "RO-SM", Label: "Satu Mare"},
	{Code: "RO-SB", Label: "Sibiu"},
	{Code: "RO-SV", Label: "Suceava"},
	{Code: "RO-TR", Label: "Teleorman"},
	{Code: "RO-TM", Label: "Timiș"},
	{Code: "RO-TL", Label: "Tulcea"},
	{Code: "RO-VL", Label: "Vâlcea"},
	{Code: "RO-VS", Label: "Vaslui"},
	{Code: "RO-VN", Label: "Vrancea"},
}

// BucharestCounty is the county code whose cities are sector codes
const BucharestCounty = "RO-B"

// BucharestSectors are the city codes accepted for county RO-B
var BucharestSectors = []Entry{
	{Code: "SECTOR1", Label: "Sector 1"},
	{Code: "SECTOR2", Label: "Sector 2"},
	{Code: "SECTOR3", Label: "Sector 3"},
	{Code: "SECTOR4", Label: "Sector 4"},
	{Code: "SECTOR5", Label: "Sector 5"},
	{Code: "SECTOR6", Label: "Sector 6"},
}
