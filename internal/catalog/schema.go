package catalog

import "github.com/vvvsurvey/pawpipe/internal/ndarray"

// pawprintField declares one column of the converter's ASCII table.
type pawprintField struct {
	Name string
	Kind ndarray.Kind
}

// PawprintSchema is the fixed 27-column schema of the converter
// output: six sexagesimal angle fields, two pixel coordinates, seven
// magnitude/error pairs and four categorical/quality fields.
var PawprintSchema = []pawprintField{
	{"ra_h", ndarray.Int64},
	{"ra_m", ndarray.Int64},
	{"ra_s", ndarray.Float64},
	{"dec_d", ndarray.Int64},
	{"dec_m", ndarray.Int64},
	{"dec_s", ndarray.Float64},
	{"x", ndarray.Float64},
	{"y", ndarray.Float64},
	{"mag1", ndarray.Float64},
	{"mag_err1", ndarray.Float64},
	{"mag2", ndarray.Float64},
	{"mag_err2", ndarray.Float64},
	{"mag3", ndarray.Float64},
	{"mag_err3", ndarray.Float64},
	{"mag4", ndarray.Float64},
	{"mag_err4", ndarray.Float64},
	{"mag5", ndarray.Float64},
	{"mag_err5", ndarray.Float64},
	{"mag6", ndarray.Float64},
	{"mag_err6", ndarray.Float64},
	{"mag7", ndarray.Float64},
	{"mag_err7", ndarray.Float64},
	{"chip_nro", ndarray.Int64},
	{"stel_cls", ndarray.Int64},
	{"elip", ndarray.Float64},
	{"pos_ang", ndarray.Float64},
	{"confidence", ndarray.Float64},
}
