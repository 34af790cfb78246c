package services

// defaultDefinitions is the built-in catalog of managed services.
var defaultDefinitions = []Definition{
	{Name: "DiagTrack", DisplayName: "Connected User Experiences and Telemetry", Category: SafeToDisable, Group: "Telemetry & Diagnostics",
		Rationale: "Collects usage data; no gaming benefit, reduces CPU/network overhead"},
	{Name: "DPS", DisplayName: "Diagnostic Policy Service", Category: SafeToDisable, Group: "Telemetry & Diagnostics",
		Rationale: "Problem detection scanning; resource-intensive during gameplay"},
	{Name: "WdiServiceHost", DisplayName: "Diagnostic Service Host", Category: SafeToDisable, Group: "Telemetry & Diagnostics",
		Rationale: "Background diagnostics can cause micro-stutters during gaming"},
	{Name: "WdiSystemHost", DisplayName: "Diagnostic System Host", Category: SafeToDisable, Group: "Telemetry & Diagnostics",
		Rationale: "System diagnostics create unnecessary CPU overhead during gaming"},
	{Name: "WalletService", DisplayName: "WalletService", Category: SafeToDisable, Group: "Cloud & Microsoft Services",
		Rationale: "Payment/wallet management; irrelevant for gaming performance"},
	{Name: "AssignedAccessManagerSvc", DisplayName: "AssignedAccessManager Service", Category: SafeToDisable, Group: "Cloud & Microsoft Services",
		Rationale: "Kiosk mode support; enterprise feature not needed for gaming"},
	{Name: "Fax", DisplayName: "Fax", Category: SafeToDisable, Group: "Fax & Legacy",
		Rationale: "Obsolete fax services; never used in modern gaming setups"},
	{Name: "MapsBroker", DisplayName: "Downloaded Maps Manager", Category: SafeToDisable, Group: "Media & Entertainment",
		Rationale: "Offline maps management; irrelevant for desktop gaming"},
	{Name: "RtkUWPService", DisplayName: "Realtek Audio Universal Service", Category: SafeToDisable, Group: "Hardware Support",
		Rationale: "Realtek audio management; can conflict with gaming audio drivers"},
	{Name: "TobiiVRService", DisplayName: "Tobii VR4PIMAXP3B Platform Runtime", Category: VRSpecific, Group: "VR Runtime",
		Rationale: "Tobii eye tracking runtime for Pimax headsets; leave alone when the headset uses it"},
	{Name: "RemoteRegistry", DisplayName: "Remote Registry", Category: SafeToDisable, Group: "Remote Access",
		Rationale: "Remote registry editing; security risk and unnecessary for local gaming"},
	{Name: "TermService", DisplayName: "Remote Desktop Services", Category: SafeToDisable, Group: "Remote Access",
		Rationale: "RDP connections; unneeded for local gaming, reduces attack surface"},
	{Name: "fhsvc", DisplayName: "File History Service", Category: SafeToDisable, Group: "Backup & Sync",
		Rationale: "File backup creates heavy disk I/O that competes with game loading"},
	{Name: "WorkFolders", DisplayName: "Work Folders", Category: SafeToDisable, Group: "Backup & Sync",
		Rationale: "Enterprise file sync; unused in gaming, removes sync timers"},
	{Name: "SSDPSRV", DisplayName: "SSDP Discovery", Category: SafeToDisable, Group: "Network Discovery",
		Rationale: "UPnP/SSDP discovery; cuts broadcast traffic and CPU wakeups"},
	{Name: "UPnPHost", DisplayName: "UPnP Device Host", Category: SafeToDisable, Group: "Network Discovery",
		Rationale: "Hosts UPnP devices; no UPnP device hosting needed for gaming"},
	{Name: "FDResPub", DisplayName: "Function Discovery Provider Host", Category: SafeToDisable, Group: "Network Discovery",
		Rationale: "Network discovery providers; no network device discovery required"},
	{Name: "lfsvc", DisplayName: "Geolocation Service", Category: SafeToDisable, Group: "Location & Sensors",
		Rationale: "Location & geofences; not used in gaming, avoids periodic checks"},
	{Name: "SensorService", DisplayName: "Sensor Service", Category: SafeToDisable, Group: "Location & Sensors",
		Rationale: "Manages sensors; desktops lack sensors, removes polling overhead"},
	{Name: "SensrSvc", DisplayName: "Sensor Monitoring Service", Category: SafeToDisable, Group: "Location & Sensors",
		Rationale: "Monitors sensors; unnecessary for gaming desktop"},
	{Name: "SensorDataService", DisplayName: "Sensor Data Service", Category: SafeToDisable, Group: "Location & Sensors",
		Rationale: "Delivers sensor data; no sensors used in gaming setup"},
	{Name: "XblAuthManager", DisplayName: "Xbox Live Auth Manager", Category: SafeToDisable, Group: "Xbox Services",
		Rationale: "Xbox Live authentication; not used by most PC games"},
	{Name: "XblGameSave", DisplayName: "Xbox Live Game Save", Category: SafeToDisable, Group: "Xbox Services",
		Rationale: "Cloud saves sync; most PC games don't use Xbox Live saves"},
	{Name: "XboxNetApiSvc", DisplayName: "Xbox Live Networking Service", Category: SafeToDisable, Group: "Xbox Services",
		Rationale: "Xbox networking API; unused by most PC games, reduces network overhead"},
	{Name: "XboxGipSvc", DisplayName: "Xbox Accessory Management Service", Category: SafeToDisable, Group: "Xbox Services",
		Rationale: "Manages Xbox accessories; disable if not using Xbox controllers"},
	{Name: "PhoneSvc", DisplayName: "Phone Service", Category: SafeToDisable, Group: "Telephony",
		Rationale: "Telephony state management; desktop without telephony"},
	{Name: "MessagingService_50b27", DisplayName: "MessagingService_50b27", Category: SafeToDisable, Group: "Telephony",
		Rationale: "Text messaging support; not used in gaming setup"},
	{Name: "wisvc", DisplayName: "Windows Insider Service", Category: SafeToDisable, Group: "Insider Program",
		Rationale: "Windows Insider Program; not needed for stable gaming rig"},
	{Name: "WebClient", DisplayName: "WebClient", Category: SafeToDisable, Group: "WebDAV",
		Rationale: "WebDAV filesystem; avoids WebDAV reconnects and network overhead"},
	{Name: "stisvc", DisplayName: "Windows Image Acquisition (WIA)", Category: SafeToDisable, Group: "Imaging",
		Rationale: "Scanner/camera acquisition; no scanning/capturing needed for gaming"},
	{Name: "GoogleUpdaterService142.0.7416.0", DisplayName: "Google Updater Service", Category: SafeToDisable, Group: "Third-Party",
		Rationale: "Google software updates; not needed for gaming performance"},
	{Name: "GoogleUpdaterInternalService142.0.7416.0", DisplayName: "Google Updater Internal Service", Category: SafeToDisable, Group: "Third-Party",
		Rationale: "Google software updates; not needed for gaming performance"},
	{Name: "AsusUpdateCheck", DisplayName: "AsusUpdateCheck", Category: SafeToDisable, Group: "Third-Party",
		Rationale: "ASUS update service; manual updates sufficient for gaming"},
	{Name: "TrkWks", DisplayName: "Distributed Link Tracking Client", Category: SafeToDisable, Group: "File Tracking",
		Rationale: "Maintains NTFS links; no benefit for single-user gaming PC"},
	{Name: "RetailDemo", DisplayName: "Retail Demo Service", Category: SafeToDisable, Group: "Retail Demo",
		Rationale: "Retail demo behaviors; consumer feature unnecessary for gaming"},
	{Name: "power", DisplayName: "Power", Category: GamingOptimized, Group: "Power Management",
		Rationale: "CAUTION: Can cause stutters in VR/high-performance gaming due to power state changes"},
	{Name: "UsoSvc", DisplayName: "Update Orchestrator Service", Category: GamingOptimized, Group: "Windows Updates",
		Rationale: "Background updates hurt network/CPU during gameplay; user choice"},
	{Name: "TrustedInstaller", DisplayName: "Windows Modules Installer", Category: GamingOptimized, Group: "Windows Updates",
		Rationale: "Can trigger during gameplay causing stutters; affects Windows updates"},
	{Name: "WaaSMedicSvc", DisplayName: "WaaSMedicSvc", Category: GamingOptimized, Group: "Windows Updates",
		Rationale: "Windows Update repair service; redundant for gaming sessions"},
	{Name: "wlidsvc", DisplayName: "Microsoft Account Sign-in Assistant", Category: GamingOptimized, Group: "Cloud & Microsoft Services",
		Rationale: "Microsoft account auth; if using local account, unnecessary cloud sync"},
	{Name: "Spooler", DisplayName: "Print Spooler", Category: GamingOptimized, Group: "Printer Services",
		Rationale: "Print job spooling; disable if no printing needed during gaming"},
	{Name: "PrintNotify", DisplayName: "Printer Extensions and Notifications", Category: GamingOptimized, Group: "Printer Services",
		Rationale: "Printer dialogs; unnecessary overhead if no printing"},
	{Name: "PrintWorkflowUserSvc_50b27", DisplayName: "PrintWorkflow_50b27", Category: GamingOptimized, Group: "Printer Services",
		Rationale: "Print workflow support; not needed for gaming"},
	{Name: "WSearch", DisplayName: "Windows Search", Category: GamingOptimized, Group: "Search & Indexing",
		Rationale: "File indexing creates heavy disk I/O that competes with game loading"},
	{Name: "BcastDVRUserService_50b27", DisplayName: "GameDVR and Broadcast User Service_50b27", Category: GamingOptimized, Group: "Media & Entertainment",
		Rationale: "Game capture/broadcast; can cause frame drops and input lag during gaming"},
	{Name: "AmdPmuService", DisplayName: "AMD 3D V-Cache Performance Optimizer Service", Category: GamingOptimized, Group: "Hardware Support",
		Rationale: "AMD thread optimization; some games use own optimization that may conflict"},
	{Name: "AmdAcpSvc", DisplayName: "AMD Application Compatibility Database Service", Category: GamingOptimized, Group: "Hardware Support",
		Rationale: "AMD compatibility database; not needed for most modern games"},
	{Name: "AmdPPService", DisplayName: "AMD Provisioning Packages Service", Category: GamingOptimized, Group: "Hardware Support",
		Rationale: "AMD power management; manual game settings often provide better control"},
	{Name: "WPCSvc", DisplayName: "Parental Controls", Category: GamingOptimized, Group: "Parental Controls",
		Rationale: "Family safety features; not needed for competitive gaming"},
	{Name: "DCOMLaunch", DisplayName: "DCOM Server Process Launcher", Category: KeepRunning, Group: "General System Services",
		Rationale: "CRITICAL: COM/DCOM server launcher - many games crash without it"},
	{Name: "RpcSs", DisplayName: "Remote Procedure Call (RPC)", Category: KeepRunning, Group: "General System Services",
		Rationale: "CORE SYSTEM: RPC communication - system fails without it"},
	{Name: "PlugPlay", DisplayName: "Plug and Play", Category: KeepRunning, Group: "General System Services",
		Rationale: "REQUIRED: Hardware detection for gaming controllers and peripherals"},
	{Name: "Winmgmt", DisplayName: "Windows Management Instrumentation", Category: KeepRunning, Group: "General System Services",
		Rationale: "REQUIRED: System monitoring for game telemetry and system stability"},
	{Name: "Appinfo", DisplayName: "Application Information", Category: KeepRunning, Group: "General System Services",
		Rationale: "REQUIRED: Admin privileges for apps - games may require elevated access"},
	{Name: "ProfSvc", DisplayName: "User Profile Service", Category: KeepRunning, Group: "General System Services",
		Rationale: "REQUIRED: Loads/unloads user profiles - essential for user login"},
	{Name: "LSM", DisplayName: "Local Session Manager", Category: KeepRunning, Group: "General System Services",
		Rationale: "CORE SYSTEM: Manages user sessions - system instability if disabled"},
	{Name: "SENS", DisplayName: "System Event Notification Service", Category: KeepRunning, Group: "General System Services",
		Rationale: "REQUIRED: Monitors system events, COM+ event handling for applications"},
	{Name: "Schedule", DisplayName: "Task Scheduler", Category: KeepRunning, Group: "General System Services",
		Rationale: "REQUIRED: Schedules system-critical automated tasks"},
	{Name: "SamSs", DisplayName: "Security Accounts Manager", Category: KeepRunning, Group: "General System Services",
		Rationale: "CORE SYSTEM: Manages security accounts, login and security"},
	{Name: "Dhcp", DisplayName: "DHCP Client", Category: KeepRunning, Group: "Network Services",
		Rationale: "CRITICAL: Assigns IP addresses - essential for online multiplayer"},
	{Name: "Dnscache", DisplayName: "DNS Client", Category: KeepRunning, Group: "Network Services",
		Rationale: "CRITICAL: Resolves DNS queries - essential for online multiplayer"},
	{Name: "netprofm", DisplayName: "Network List Service", Category: KeepRunning, Group: "Network Services",
		Rationale: "REQUIRED: Identifies network connections for WiFi/Ethernet stability"},
	{Name: "NlaSvc", DisplayName: "Network Location Awareness", Category: KeepRunning, Group: "Network Services",
		Rationale: "REQUIRED: Collects network configuration for connectivity"},
	{Name: "nsi", DisplayName: "Network Store Interface Service", Category: KeepRunning, Group: "Network Services",
		Rationale: "REQUIRED: Delivers network notifications for connectivity"},
	{Name: "Wlansvc", DisplayName: "WLAN AutoConfig", Category: KeepRunning, Group: "Network Services",
		Rationale: "CRITICAL: Configures WiFi connections for multiplayer"},
	{Name: "WinHttpAutoProxySvc", DisplayName: "WinHTTP Web Proxy Auto-Discovery Service", Category: KeepRunning, Group: "Network Services",
		Rationale: "REQUIRED: Proxy discovery for network connectivity"},
	{Name: "NcbService", DisplayName: "Network Connection Broker", Category: KeepRunning, Group: "Network Services",
		Rationale: "REQUIRED: Brokers app network connections for DCS stability"},
	{Name: "DispSvc", DisplayName: "Display Policy Service", Category: KeepRunning, Group: "Graphics & Display",
		Rationale: "REQUIRED: Manages display configurations for multi-monitor and VR setups"},
	{Name: "ShellHWDetection", DisplayName: "Shell Hardware Detection", Category: KeepRunning, Group: "Graphics & Display",
		Rationale: "REQUIRED: USB and hardware event detection for controllers and peripherals"},
	{Name: "AudioSrv", DisplayName: "Windows Audio", Category: KeepRunning, Group: "Audio Services",
		Rationale: "REQUIRED: Manages audio for headsets and speakers"},
	{Name: "AudioEndpointBuilder", DisplayName: "Windows Audio Endpoint Builder", Category: KeepRunning, Group: "Audio Services",
		Rationale: "REQUIRED: Manages audio devices for audio stability"},
	{Name: "hidserv", DisplayName: "Human Interface Device Service", Category: KeepRunning, Group: "USB & Device Services",
		Rationale: "REQUIRED: Supports HID devices like gaming controllers and keyboards"},
	{Name: "DeviceAssociationService", DisplayName: "Device Association Service", Category: KeepRunning, Group: "USB & Device Services",
		Rationale: "REQUIRED: Device pairing for USB devices and wireless peripherals"},
	{Name: "DeviceInstall", DisplayName: "Device Install Service", Category: KeepRunning, Group: "USB & Device Services",
		Rationale: "REQUIRED: Installs device drivers for controller and peripheral stability"},
	{Name: "W32Time", DisplayName: "Windows Time", Category: KeepRunning, Group: "Time & Sync",
		Rationale: "REQUIRED: Time synchronization for multiplayer server sync"},
	{Name: "WinDefend", DisplayName: "Windows Defender Antivirus Service", Category: KeepRunning, Group: "Security",
		Rationale: "SECURITY: Essential malware protection for system safety"},
	{Name: "MpsSvc", DisplayName: "Windows Defender Firewall", Category: KeepRunning, Group: "Security",
		Rationale: "SECURITY: Network firewall protection for online gaming security"},
	{Name: "ClipSVC", DisplayName: "Client License Service", Category: KeepRunning, Group: "Microsoft Store",
		Rationale: "REQUIRED: Microsoft Store licensing if using Store apps"},
	{Name: "PiServiceLauncher", DisplayName: "PiService Launcher", Category: VRSpecific, Group: "VR Runtime",
		Rationale: "Pimax headset runtime; required by Pimax Play and PiTool"},
	{Name: "OVRService", DisplayName: "Oculus VR Runtime Service", Category: VRSpecific, Group: "VR Runtime",
		Rationale: "Meta/Oculus runtime; required for Oculus Link and Air Link"},
	{Name: "OVRLibraryService", DisplayName: "Oculus VR Library Service", Category: VRSpecific, Group: "VR Runtime",
		Rationale: "Meta/Oculus library service used by the Oculus runtime"},
}
