package models

// Attributes holds the descriptive fields of an establishment. None of them takes
// part in an invariant; an absent field is the empty string.
//
// Two address blocks are kept side by side: the primary address and the
// secondary one (fields suffixed 2).
type Attributes struct {
	StatutDiffusion                   string `json:"statutDiffusionEtablissement"`
	DateCreation                      string `json:"dateCreationEtablissement"`
	TrancheEffectifs                  string `json:"trancheEffectifsEtablissement"`
	AnneeEffectifs                    string `json:"anneeEffectifsEtablissement"`
	ActivitePrincipaleRegistreMetiers string `json:"activitePrincipaleRegistreMetiersEtablissement"`
	DateDernierTraitement             string `json:"dateDernierTraitementEtablissement"`
	EtablissementSiege                string `json:"etablissementSiege"`
	NombrePeriodes                    string `json:"nombrePeriodesEtablissement"`

	// Primary address.
	ComplementAdresse      string `json:"complementAdresseEtablissement"`
	NumeroVoie             string `json:"numeroVoieEtablissement"`
	IndiceRepetition       string `json:"indiceRepetitionEtablissement"`
	TypeVoie               string `json:"typeVoieEtablissement"`
	LibelleVoie            string `json:"libelleVoieEtablissement"`
	CodePostal             string `json:"codePostalEtablissement"`
	LibelleCommune         string `json:"libelleCommuneEtablissement"`
	LibelleCommuneEtranger string `json:"libelleCommuneEtrangerEtablissement"`
	DistributionSpeciale   string `json:"distributionSpecialeEtablissement"`
	CodeCommune            string `json:"codeCommuneEtablissement"`
	CodeCedex              string `json:"codeCedexEtablissement"`
	LibelleCedex           string `json:"libelleCedexEtablissement"`
	CodePaysEtranger       string `json:"codePaysEtrangerEtablissement"`
	LibellePaysEtranger    string `json:"libellePaysEtrangerEtablissement"`

	// Secondary address.
	ComplementAdresse2      string `json:"complementAdresse2Etablissement"`
	NumeroVoie2             string `json:"numeroVoie2Etablissement"`
	IndiceRepetition2       string `json:"indiceRepetition2Etablissement"`
	TypeVoie2               string `json:"typeVoie2Etablissement"`
	LibelleVoie2            string `json:"libelleVoie2Etablissement"`
	CodePostal2             string `json:"codePostal2Etablissement"`
	LibelleCommune2         string `json:"libelleCommune2Etablissement"`
	LibelleCommuneEtranger2 string `json:"libelleCommuneEtranger2Etablissement"`
	DistributionSpeciale2   string `json:"distributionSpeciale2Etablissement"`
	CodeCommune2            string `json:"codeCommune2Etablissement"`
	CodeCedex2              string `json:"codeCedex2Etablissement"`
	LibelleCedex2           string `json:"libelleCedex2Etablissement"`
	CodePaysEtranger2       string `json:"codePaysEtranger2Etablissement"`
	LibellePaysEtranger2    string `json:"libellePaysEtranger2Etablissement"`

	DateDebut                      string `json:"dateDebut"`
	EtatAdministratif              string `json:"etatAdministratifEtablissement"`
	Enseigne1                      string `json:"enseigne1Etablissement"`
	Enseigne2                      string `json:"enseigne2Etablissement"`
	Enseigne3                      string `json:"enseigne3Etablissement"`
	DenominationUsuelle            string `json:"denominationUsuelleEtablissement"`
	ActivitePrincipale             string `json:"activitePrincipaleEtablissement"`
	NomenclatureActivitePrincipale string `json:"nomenclatureActivitePrincipaleEtablissement"`
	CaractereEmployeur             string `json:"caractereEmployeurEtablissement"`
}

// attributeFields lists the JSON names of Attributes in declaration order.
var attributeFields = []string{
	"statutDiffusionEtablissement",
	"dateCreationEtablissement",
	"trancheEffectifsEtablissement",
	"anneeEffectifsEtablissement",
	"activitePrincipaleRegistreMetiersEtablissement",
	"dateDernierTraitementEtablissement",
	"etablissementSiege",
	"nombrePeriodesEtablissement",
	"complementAdresseEtablissement",
	"numeroVoieEtablissement",
	"indiceRepetitionEtablissement",
	"typeVoieEtablissement",
	"libelleVoieEtablissement",
	"codePostalEtablissement",
	"libelleCommuneEtablissement",
	"libelleCommuneEtrangerEtablissement",
	"distributionSpecialeEtablissement",
	"codeCommuneEtablissement",
	"codeCedexEtablissement",
	"libelleCedexEtablissement",
	"codePaysEtrangerEtablissement",
	"libellePaysEtrangerEtablissement",
	"complementAdresse2Etablissement",
	"numeroVoie2Etablissement",
	"indiceRepetition2Etablissement",
	"typeVoie2Etablissement",
	"libelleVoie2Etablissement",
	"codePostal2Etablissement",
	"libelleCommune2Etablissement",
	"libelleCommuneEtranger2Etablissement",
	"distributionSpeciale2Etablissement",
	"codeCommune2Etablissement",
	"codeCedex2Etablissement",
	"libelleCedex2Etablissement",
	"codePaysEtranger2Etablissement",
	"libellePaysEtranger2Etablissement",
	"dateDebut",
	"etatAdministratifEtablissement",
	"enseigne1Etablissement",
	"enseigne2Etablissement",
	"enseigne3Etablissement",
	"denominationUsuelleEtablissement",
	"activitePrincipaleEtablissement",
	"nomenclatureActivitePrincipaleEtablissement",
	"caractereEmployeurEtablissement",
}

// ToMap returns the attribute set keyed by JSON name. Every field is present.
func (a Attributes) ToMap() map[string]string {
	return map[string]string{
		"statutDiffusionEtablissement":                   a.StatutDiffusion,
		"dateCreationEtablissement":                      a.DateCreation,
		"trancheEffectifsEtablissement":                  a.TrancheEffectifs,
		"anneeEffectifsEtablissement":                    a.AnneeEffectifs,
		"activitePrincipaleRegistreMetiersEtablissement": a.ActivitePrincipaleRegistreMetiers,
		"dateDernierTraitementEtablissement":             a.DateDernierTraitement,
		"etablissementSiege":                             a.EtablissementSiege,
		"nombrePeriodesEtablissement":                    a.NombrePeriodes,
		"complementAdresseEtablissement":                 a.ComplementAdresse,
		"numeroVoieEtablissement":                        a.NumeroVoie,
		"indiceRepetitionEtablissement":                  a.IndiceRepetition,
		"typeVoieEtablissement":                          a.TypeVoie,
		"libelleVoieEtablissement":                       a.LibelleVoie,
		"codePostalEtablissement":                        a.CodePostal,
		"libelleCommuneEtablissement":                    a.LibelleCommune,
		"libelleCommuneEtrangerEtablissement":            a.LibelleCommuneEtranger,
		"distributionSpecialeEtablissement":              a.DistributionSpeciale,
		"codeCommuneEtablissement":                       a.CodeCommune,
		"codeCedexEtablissement":                         a.CodeCedex,
		"libelleCedexEtablissement":                      a.LibelleCedex,
		"codePaysEtrangerEtablissement":                  a.CodePaysEtranger,
		"libellePaysEtrangerEtablissement":               a.LibellePaysEtranger,
		"complementAdresse2Etablissement":                a.ComplementAdresse2,
		"numeroVoie2Etablissement":                       a.NumeroVoie2,
		"indiceRepetition2Etablissement":                 a.IndiceRepetition2,
		"typeVoie2Etablissement":                         a.TypeVoie2,
		"libelleVoie2Etablissement":                      a.LibelleVoie2,
		"codePostal2Etablissement":                       a.CodePostal2,
		"libelleCommune2Etablissement":                   a.LibelleCommune2,
		"libelleCommuneEtranger2Etablissement":           a.LibelleCommuneEtranger2,
		"distributionSpeciale2Etablissement":             a.DistributionSpeciale2,
		"codeCommune2Etablissement":                      a.CodeCommune2,
		"codeCedex2Etablissement":                        a.CodeCedex2,
		"libelleCedex2Etablissement":                     a.LibelleCedex2,
		"codePaysEtranger2Etablissement":                 a.CodePaysEtranger2,
		"libellePaysEtranger2Etablissement":              a.LibellePaysEtranger2,
		"dateDebut":                                      a.DateDebut,
		"etatAdministratifEtablissement":                 a.EtatAdministratif,
		"enseigne1Etablissement":                         a.Enseigne1,
		"enseigne2Etablissement":                         a.Enseigne2,
		"enseigne3Etablissement":                         a.Enseigne3,
		"denominationUsuelleEtablissement":               a.DenominationUsuelle,
		"activitePrincipaleEtablissement":                a.ActivitePrincipale,
		"nomenclatureActivitePrincipaleEtablissement":    a.NomenclatureActivitePrincipale,
		"caractereEmployeurEtablissement":                a.CaractereEmployeur,
	}
}

// ScanTargets returns pointers to every attribute in AttributeFields order, for
// row scanners.
func (a *Attributes) ScanTargets() []any {
	return []any{
		&a.StatutDiffusion,
		&a.DateCreation,
		&a.TrancheEffectifs,
		&a.AnneeEffectifs,
		&a.ActivitePrincipaleRegistreMetiers,
		&a.DateDernierTraitement,
		&a.EtablissementSiege,
		&a.NombrePeriodes,
		&a.ComplementAdresse,
		&a.NumeroVoie,
		&a.IndiceRepetition,
		&a.TypeVoie,
		&a.LibelleVoie,
		&a.CodePostal,
		&a.LibelleCommune,
		&a.LibelleCommuneEtranger,
		&a.DistributionSpeciale,
		&a.CodeCommune,
		&a.CodeCedex,
		&a.LibelleCedex,
		&a.CodePaysEtranger,
		&a.LibellePaysEtranger,
		&a.ComplementAdresse2,
		&a.NumeroVoie2,
		&a.IndiceRepetition2,
		&a.TypeVoie2,
		&a.LibelleVoie2,
		&a.CodePostal2,
		&a.LibelleCommune2,
		&a.LibelleCommuneEtranger2,
		&a.DistributionSpeciale2,
		&a.CodeCommune2,
		&a.CodeCedex2,
		&a.LibelleCedex2,
		&a.CodePaysEtranger2,
		&a.LibellePaysEtranger2,
		&a.DateDebut,
		&a.EtatAdministratif,
		&a.Enseigne1,
		&a.Enseigne2,
		&a.Enseigne3,
		&a.DenominationUsuelle,
		&a.ActivitePrincipale,
		&a.NomenclatureActivitePrincipale,
		&a.CaractereEmployeur,
	}
}
