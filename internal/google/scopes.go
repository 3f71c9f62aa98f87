package google

// DriveScope grants full read/write access to Drive files, including
// spreadsheets. It is the single scope requested by service-account
// credentials.
const DriveScope = "https://www.googleapis.com/auth/drive"

