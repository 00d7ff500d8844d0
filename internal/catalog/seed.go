package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PrimaryCenterID owns the unprefixed test ids ("1".."36"). Every other
// center offers the same menu under ids of the form "<center>-<n>".
const PrimaryCenterID = "1"

var seedCenters = []Center{
	{ID: "1", Name: "Apollo Diagnostics", Address: "123 Medical Plaza, Downtown", Phone: "123-456-7890", Email: "info@apollodiag.com"},
	{ID: "2", Name: "Max Healthcare Labs", Address: "456 Health Avenue, Central City", Phone: "123-456-7891", Email: "contact@maxlabs.com"},
	{ID: "3", Name: "Fortis Imaging Center", Address: "789 Wellness Street, Medical District", Phone: "123-456-7892", Email: "support@fortisimaging.com"},
	{ID: "4", Name: "Medanta Diagnostic Hub", Address: "321 Care Boulevard, Health City", Phone: "123-456-7893", Email: "info@medantahub.com"},
	{ID: "5", Name: "AIIMS Diagnostic Center", Address: "654 Research Road, Medical Campus", Phone: "123-456-7894", Email: "diagnostics@aiims.com"},
	{ID: "6", Name: "Manipal PathLab", Address: "987 Laboratory Lane, Science Park", Phone: "123-456-7895", Email: "pathlab@manipal.com"},
	{ID: "7", Name: "SRL Diagnostics", Address: "147 Test Center Road, Bio Valley", Phone: "123-456-7896", Email: "services@srldiag.com"},
	{ID: "8", Name: "Dr. Lal PathLabs", Address: "258 Pathology Plaza, Medical Hub", Phone: "123-456-7897", Email: "info@lalpathlabs.com"},
}

type menuItem struct {
	name, description, category string
	price                       int64
	minutes                     int
}

var seedMenu = []menuItem{
	{"Complete Blood Count (CBC)", "Full blood panel with RBC, WBC, Platelets", "Blood Test", 800, 30},
	{"Lipid Profile", "Cholesterol, HDL, LDL, Triglycerides", "Blood Test", 1200, 45},
	{"Thyroid Function Test (TSH, T3, T4)", "Complete thyroid hormone panel", "Blood Test", 1500, 60},
	{"Liver Function Test (LFT)", "SGOT, SGPT, Bilirubin, Albumin", "Blood Test", 1000, 45},
	{"Kidney Function Test (KFT)", "Creatinine, Urea, Uric Acid", "Blood Test", 900, 40},
	{"Diabetes Panel (HbA1c, Glucose)", "Blood sugar and long-term glucose control", "Blood Test", 1100, 35},
	{"Vitamin D Test", "25-OH Vitamin D levels", "Blood Test", 1800, 30},
	{"Vitamin B12 & Folate", "B12 and Folate deficiency screening", "Blood Test", 1600, 30},
	{"Chest X-Ray", "Chest radiograph for lung and heart examination", "X-Ray", 600, 15},
	{"Spine X-Ray (Cervical)", "Cervical spine radiograph", "X-Ray", 800, 20},
	{"Knee X-Ray (Both Knees)", "Bilateral knee joint X-ray", "X-Ray", 900, 25},
	{"Pelvis X-Ray", "Pelvic bone and hip joint X-ray", "X-Ray", 700, 20},
	{"Shoulder X-Ray", "Shoulder joint and clavicle X-ray", "X-Ray", 650, 15},
	{"CT Scan - Head", "Computed tomography of brain", "CT Scan", 3500, 30},
	{"CT Scan - Chest", "High-resolution chest CT scan", "CT Scan", 4000, 45},
	{"CT Scan - Abdomen", "Abdominal CT with contrast", "CT Scan", 4500, 60},
	{"CT Scan - Spine", "Spinal CT scan (lumbar/cervical)", "CT Scan", 3800, 40},
	{"MRI - Brain", "Magnetic resonance imaging of brain", "MRI Scan", 8000, 90},
	{"MRI - Knee Joint", "Detailed knee MRI scan", "MRI Scan", 7000, 75},
	{"MRI - Spine (Lumbar)", "Lumbar spine MRI scan", "MRI Scan", 7500, 80},
	{"MRI - Cardiac", "Cardiac MRI for heart evaluation", "MRI Scan", 12000, 120},
	{"Ultrasound - Abdomen", "Abdominal ultrasound scan", "Ultrasound", 1200, 30},
	{"Ultrasound - Pelvis", "Pelvic ultrasound examination", "Ultrasound", 1100, 25},
	{"Ultrasound - Thyroid", "Thyroid gland ultrasound", "Ultrasound", 1000, 20},
	{"Echocardiogram (2D Echo)", "Heart ultrasound examination", "Ultrasound", 2500, 45},
	{"ECG (Electrocardiogram)", "Heart rhythm and electrical activity", "Cardiology", 400, 15},
	{"Stress Test (TMT)", "Treadmill test for cardiac function", "Cardiology", 2000, 60},
	{"Pulmonary Function Test (PFT)", "Lung capacity and function assessment", "Pulmonology", 1500, 45},
	{"Bone Density Scan (DEXA)", "Osteoporosis screening test", "Radiology", 2200, 30},
	{"Mammography", "Breast cancer screening", "Radiology", 1800, 30},
	{"Complete Urine Analysis", "Comprehensive urine examination", "Urine Test", 300, 15},
	{"Urine Culture & Sensitivity", "Bacterial infection detection", "Urine Test", 600, 24 * 60},
	{"Stool Analysis", "Complete stool examination", "Stool Test", 400, 20},
	{"Stool Culture", "Bacterial culture of stool sample", "Stool Test", 800, 48 * 60},
	{"Upper GI Endoscopy", "Stomach and esophagus examination", "Endoscopy", 5000, 45},
	{"Colonoscopy", "Large intestine examination", "Endoscopy", 6000, 60},
}

// TestID returns the catalog id of menu position n (1-based) at centerID.
func TestID(centerID string, n int) string {
	if centerID == PrimaryCenterID {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s-%d", centerID, n)
}

// SeedCenters returns a copy of the built-in centers.
func SeedCenters() []Center {
	out := make([]Center, len(seedCenters))
	copy(out, seedCenters)
	return out
}

// SeedTests expands the built-in menu for every built-in center.
func SeedTests() []Test {
	out := make([]Test, 0, len(seedCenters)*len(seedMenu))
	for _, c := range seedCenters {
		out = append(out, MenuFor(c.ID)...)
	}
	return out
}

// MenuFor returns the standard test menu priced for centerID.
func MenuFor(centerID string) []Test {
	out := make([]Test, 0, len(seedMenu))
	for i, item := range seedMenu {
		out = append(out, Test{
			ID:              TestID(centerID, i+1),
			Name:            item.name,
			Description:     item.description,
			Category:        item.category,
			Price:           decimal.NewFromInt(item.price),
			DurationMinutes: item.minutes,
			CenterID:        centerID,
		})
	}
	return out
}

// NewSeeded returns the in-memory catalog of built-in centers and tests.
func NewSeeded() *Memory {
	return NewMemory(SeedCenters(), SeedTests())
}
